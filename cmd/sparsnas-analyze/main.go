package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wanders/sparsnasdecode/internal/config"
	"github.com/wanders/sparsnasdecode/internal/options"
	"github.com/wanders/sparsnasdecode/pkg/sparsnas"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sparsnas-analyze [hex]",
		Short: "Decode IKEA Sparsnäs energy meter packets",
		Long:  "sparsnas-analyze decodes Sparsnäs transmitter packets captured as hex using the sparsnas library.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := analyzeOptions()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx, opts)
			}
			return runAnalyze(ctx, opts, args[0])
		},
	}

	encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Build the packet a transmitter would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := analyzeOptions()
			if err != nil {
				return err
			}
			serial, err := options.ParseSerial(opts.Serial)
			if err != nil {
				return err
			}
			enc.pkt.Serial = serial % 1_000_000
			data := sparsnas.New(serial).Encode(enc.pkt, enc.addr)
			fmt.Println(strings.ToUpper(hex.EncodeToString(data[:])))
			return nil
		},
	}

	serialFlag   string
	deviceName   string
	configPath   string
	pulsesPerKWh uint32
	skipCRC      bool
	verbose      bool

	enc struct {
		pkt  sparsnas.Packet
		addr byte
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&serialFlag, "serial", "", "transmitter serial as printed on the label (nnn-nnn-nnn)")
	flags.StringVar(&configPath, "config", "", "YAML file listing devices")
	flags.StringVar(&deviceName, "device", "", "device name from --config")
	flags.Uint32Var(&pulsesPerKWh, "pulses-per-kwh", 0, "meter constant (default 1000)")
	flags.BoolVar(&skipCRC, "no-crc", false, "ignore the trailing checksum")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	ef := encodeCmd.Flags()
	ef.Uint16Var(&enc.pkt.PacketSeq, "seq", 0, "packet sequence number")
	ef.Uint16Var(&enc.pkt.TimeBetweenPulses, "interval", 0, "time between pulses")
	ef.Uint32Var(&enc.pkt.PulseCount, "pulses", 0, "pulse count")
	ef.Uint8Var(&enc.pkt.BatteryPercentage, "battery", 100, "battery percentage")
	ef.Uint16Var(&enc.pkt.Status, "status", 0x40C1, "status word")
	ef.Uint8Var(&enc.addr, "addr", 0, "value of byte 1")
	rootCmd.AddCommand(encodeCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

// analyzeOptions merges the device file with command line flags. Flags win.
func analyzeOptions() (sparsnas.AnalyzeOptions, error) {
	opts := sparsnas.AnalyzeOptions{
		Serial:       serialFlag,
		PulsesPerKWh: pulsesPerKWh,
		SkipCRC:      skipCRC,
	}
	if configPath == "" {
		if deviceName != "" {
			return opts, fmt.Errorf("--device requires --config")
		}
		return opts, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return opts, fmt.Errorf("config load failed: %w", err)
	}
	dev := cfg.Devices[0]
	if deviceName != "" {
		var ok bool
		if dev, ok = cfg.Device(deviceName); !ok {
			return opts, fmt.Errorf("device %q not found in %s", deviceName, configPath)
		}
	}
	logrus.WithFields(logrus.Fields{"device": dev.Name, "serial": dev.Serial}).Debug("using configured device")
	if opts.Serial == "" {
		opts.Serial = dev.Serial
	}
	if opts.PulsesPerKWh == 0 {
		opts.PulsesPerKWh = dev.PulsesPerKWh
	}
	return opts, nil
}

func runInteractive(ctx context.Context, opts sparsnas.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("sparsnas analyze mode. Paste a hex packet and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode packet")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, opts sparsnas.AnalyzeOptions, raw string) error {
	result, err := sparsnas.AnalyzeHex(ctx, raw, opts)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"seq":     result.Packet.PacketSeq,
		"serial":  result.Packet.Serial,
		"checked": result.CRCChecked,
	}).Debug("packet decoded")
	fmt.Println(result.String())
	return nil
}
