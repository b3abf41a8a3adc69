// olfgen turns a declarative YAML description of an odor-delivery experiment
// into the ordered valve-pin schedule the olfactometer runs, and records
// which pin carries which odor for analysis time.
//
// Usage:
//
//	olfgen generate experiment.yaml [--hardware rig.yaml] [--seed N] [-o out.yaml]
//	olfgen push generated.yaml --port /dev/ttyACM0 [--baud 115200]
//	olfgen ports
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"olfactometer-go/pkg/config"
	"olfactometer-go/pkg/log"
	"olfactometer-go/pkg/output"
	"olfactometer-go/pkg/schedule"
	"olfactometer-go/pkg/serial"
)

var rootCmd = &cobra.Command{
	Use:           "olfgen",
	Short:         "Generate and deliver olfactometer trial schedules",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	generateSeed     int64
	generateOut      string
	generateHardware string
	logLevel         string
)

var generateCmd = &cobra.Command{
	Use:   "generate <experiment.yaml>",
	Short: "Generate a trial schedule from an experiment config",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var (
	pushPort string
	pushBaud int
)

var pushCmd = &cobra.Command{
	Use:   "push <generated.yaml>",
	Short: "Send a generated schedule to the valve controller",
	Args:  cobra.ExactArgs(1),
	RunE:  runPush,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate serial devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(os.Stderr, "no serial devices found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	generateCmd.Flags().Int64Var(&generateSeed, "seed", 0,
		"seed for the randomness source (0: time-seeded)")
	generateCmd.Flags().StringVarP(&generateOut, "output", "o", "",
		"output file (default: stdout)")
	generateCmd.Flags().StringVar(&generateHardware, "hardware", "",
		"per-rig hardware config merged into the experiment config")
	rootCmd.AddCommand(generateCmd)

	pushCmd.Flags().StringVar(&pushPort, "port", "", "serial device of the valve controller")
	pushCmd.Flags().IntVar(&pushBaud, "baud", 0, "baud rate (default: 115200)")
	pushCmd.MarkFlagRequired("port")
	rootCmd.AddCommand(pushCmd)

	rootCmd.AddCommand(portsCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := log.New("olfgen")
	logger.SetLevel(log.ParseLevel(logLevel))
	log.SetDefaultLogger(logger)

	req, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if generateHardware != "" {
		hw, err := config.LoadHardware(generateHardware)
		if err != nil {
			return err
		}
		req.Merge(hw)
	}

	settings, err := req.Settings()
	if err != nil {
		return err
	}
	manifolds, err := req.ResolvePins()
	if err != nil {
		return err
	}

	seed := generateSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	} else {
		logger.Info("using fixed seed %d; schedules will reproduce exactly", seed)
	}
	rng := rand.New(rand.NewSource(seed))

	schedLogger := logger.WithPrefix("schedule")
	var configs []*output.GeneratedConfig
	if req.IsPair() {
		results, err := schedule.GeneratePairs(schedule.PairsConfig{
			Pairs:         req.OdorPairs,
			Group1Pins:    manifolds.Group1Pins,
			Group2Pins:    manifolds.Group2Pins,
			Group1Balance: manifolds.Group1Balance,
			Group2Balance: manifolds.Group2Balance,
			Single:        manifolds.Single,
			NRepeats:      req.NRepeats,
			CO2Pin:        manifolds.CO2Pin,
		}, schedLogger)
		if err != nil {
			return err
		}
		configs = output.BuildAll(results, settings)
	} else {
		res, err := schedule.GeneratePanel(schedule.PanelConfig{
			Odors:          req.Odors,
			AvailablePins:  manifolds.AvailablePins,
			PinsToBalances: manifolds.PinsToBalances,
			Randomize:      req.RandomizePresentationOrder,
			NRepeats:       req.NRepeats,
			CO2Pin:         manifolds.CO2Pin,
		}, rng, schedLogger)
		if err != nil {
			return err
		}
		configs = []*output.GeneratedConfig{output.Build(res, settings)}
	}

	if generateOut == "" {
		return output.Encode(os.Stdout, configs...)
	}
	if err := output.WriteFile(generateOut, configs...); err != nil {
		return err
	}
	logger.Info("wrote %d schedule document(s) to %s", len(configs), generateOut)
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	logger := log.New("olfgen")
	logger.SetLevel(log.ParseLevel(logLevel))

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading schedule: %w", err)
	}

	cfg := serial.DefaultConfig()
	cfg.Device = pushPort
	if pushBaud != 0 {
		cfg.BaudRate = pushBaud
	}

	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	if _, err := port.Write(data); err != nil {
		return err
	}
	logger.Info("pushed %d bytes to %s", len(data), port.Device())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
