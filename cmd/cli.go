// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"specviz/internal/config"
	"specviz/pkg/build"

	"github.com/spf13/cobra"
)

// Command names the action selected on the command line.
type Command string

const (
	CommandCapture Command = "capture"
	CommandPlay    Command = "play"
	CommandList    Command = "list"
	CommandDevices Command = "devices"
	CommandInfo    Command = "info"
)

// Invocation is the parsed command line. Command is empty when cobra already
// handled the request, as for --help and --version.
type Invocation struct {
	Command  Command
	File     string
	Headless bool
	Config   *config.Config
}

// flagValues receives the flag values before they are merged over the
// configuration file.
type flagValues struct {
	configPath      string
	inputDevice     int
	outputDevice    int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	channels        int
	gate            bool
	record          bool
	outputDir       string
	fftSize         int
	bars            int
	window          string
	backend         string
	fps             int
	udp             bool
	udpTarget       string
	ws              bool
	wsAddr          string
	verbose         bool
	logFile         string
}

// ParseArgs parses args (without the program name) into an Invocation.
// Configuration is loaded from --config or the default search paths; flags
// given explicitly override the file.
func ParseArgs(args []string) (*Invocation, error) {
	inv := &Invocation{}
	var f flagValues

	rootCmd := &cobra.Command{
		Use:           "specviz [file]",
		Short:         "Terminal audio spectrum visualizer",
		Long:          "specviz plays an audio file or captures live input and draws its frequency spectrum as bars.",
		Version:       build.Version(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			inv.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// A bare file argument plays it; no argument captures.
			if len(args) == 1 {
				inv.Command = CommandPlay
				inv.File = args[0]
				return nil
			}
			inv.Command = CommandCapture
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "play <file>",
			Short: "Play an audio file (mp3, wav, flac, ogg) and visualize it",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				inv.Command = CommandPlay
				inv.File = args[0]
			},
		},
		&cobra.Command{
			Use:   "capture",
			Short: "Visualize live input from an audio device",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				inv.Command = CommandCapture
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List available audio devices",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				inv.Command = CommandList
			},
		},
		&cobra.Command{
			Use:   "devices",
			Short: "Pick an audio device interactively",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				inv.Command = CommandDevices
			},
		},
		&cobra.Command{
			Use:   "info <file>",
			Short: "Print the tags and format of an audio file",
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				inv.Command = CommandInfo
				inv.File = args[0]
			},
		},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "",
		"Configuration file. Defaults to specviz.yaml or config.yaml in the working directory")
	pf.BoolVar(&inv.Headless, "headless", false,
		"Run without the terminal UI and publish bars over the enabled transports")

	// Audio Device Configuration
	pf.IntVarP(&f.inputDevice, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVar(&f.outputDevice, "output-device", config.DefaultDeviceID,
		"Specify output device ID for playback")
	pf.IntVarP(&f.channels, "channels", "c", config.DefaultInputChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	pf.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Capture sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&f.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&f.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	pf.BoolVar(&f.gate, "gate", false,
		"Silence captured audio below the gate threshold")

	// Analysis Configuration
	pf.IntVar(&f.fftSize, "fft-size", 0, "FFT window length, a power of two")
	pf.IntVar(&f.bars, "bars", 0, "Maximum number of bars")
	pf.StringVar(&f.window, "window", "", "Window function (hann, hamming, blackman, ...)")
	pf.StringVar(&f.backend, "fft-backend", "", "FFT implementation (recursive, gonum)")
	pf.IntVar(&f.fps, "fps", 0, "Analysis ticks per second")

	// Recording Configuration
	pf.BoolVarP(&f.record, "record", "r", false,
		"Record everything the visualizer sees to a WAV file")
	pf.StringVarP(&f.outputDir, "output-dir", "o", "",
		"Directory for recordings, named specviz-YYYYMMDD-HHMMSS.wav")

	// Transport Configuration
	pf.BoolVar(&f.udp, "udp", false, "Publish bars as binary UDP packets")
	pf.StringVar(&f.udpTarget, "udp-target", "", "UDP target host:port")
	pf.BoolVar(&f.ws, "ws", false, "Serve bars to WebSocket clients")
	pf.StringVar(&f.wsAddr, "ws-addr", "", "WebSocket listen address")

	// Debug Configuration
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Show verbose output")
	pf.StringVar(&f.logFile, "log-file", "", "Log file used while the terminal UI is active")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return inv, nil
}

// loadConfig reads the configuration file and merges the flags the user
// set explicitly over it.
func loadConfig(cmd *cobra.Command, f *flagValues) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag  string
		apply func()
	}{
		{"device", func() { cfg.Audio.InputDevice = f.inputDevice }},
		{"output-device", func() { cfg.Audio.OutputDevice = f.outputDevice }},
		{"channels", func() { cfg.Audio.InputChannels = f.channels }},
		{"sample-rate", func() { cfg.Audio.SampleRate = f.sampleRate }},
		{"frames-per-buffer", func() { cfg.Audio.FramesPerBuffer = f.framesPerBuffer }},
		{"low-latency", func() { cfg.Audio.LowLatency = f.lowLatency }},
		{"gate", func() { cfg.Audio.GateEnabled = f.gate }},
		{"fft-size", func() { cfg.Analysis.FFTSize = f.fftSize }},
		{"bars", func() { cfg.Analysis.Bars = f.bars }},
		{"window", func() { cfg.Analysis.Window = f.window }},
		{"fft-backend", func() { cfg.Analysis.Backend = f.backend }},
		{"fps", func() { cfg.Analysis.FPS = f.fps }},
		{"record", func() { cfg.Recording.Enabled = f.record }},
		{"output-dir", func() { cfg.Recording.OutputDir = f.outputDir }},
		{"udp", func() { cfg.Transport.UDPEnabled = f.udp }},
		{"udp-target", func() { cfg.Transport.UDPTargetAddress = f.udpTarget }},
		{"ws", func() { cfg.Transport.WSEnabled = f.ws }},
		{"ws-addr", func() { cfg.Transport.WSAddress = f.wsAddr }},
		{"log-file", func() { cfg.Log.File = f.logFile }},
		{"verbose", func() {
			if f.verbose {
				cfg.Log.Level = "debug"
			}
		}},
	}

	flags := cmd.Flags()
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			o.apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("command line: %w", err)
	}
	return cfg, nil
}
