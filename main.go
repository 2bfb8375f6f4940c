package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"Marionette/mcp"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marionette",
	Short: "Drive emulator and desktop windows with simulated input",
	Long: "Marionette injects mouse, keyboard and text input into Windows desktop\n" +
		"windows and Android emulator instances, without stealing focus.",
	SilenceUsage: true,
}

var (
	flagManagerPath string
	flagLogLevel    string
	flagLogFile     bool
)

func init() {
	rootCmd.Version = appVersion
	rootCmd.PersistentFlags().StringVar(&flagManagerPath, "manager", "", "Path to the emulator manager console binary")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagLogFile, "log-file", false, "Also write logs to the per-user log directory")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(windowsCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(textCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(shortcutCmd)
}

// buildApp applies CLI overrides on top of persisted settings and wires
// the core.
func buildApp() (*App, error) {
	store, err := NewSettingsStore()
	if err != nil {
		return nil, err
	}
	cfg := store.Load()

	if flagManagerPath != "" {
		cfg.ManagerPath = flagManagerPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogFile {
		cfg.LogToFile = true
	}

	logCfg := DefaultLogConfig()
	logCfg.Level = parseLogLevel(cfg.LogLevel)
	if cfg.LogToFile {
		if dir, err := AppConfigDir(); err == nil {
			fileCfg := PersistentLogConfig(dir)
			fileCfg.Level = logCfg.Level
			logCfg = fileCfg
		}
	}
	if err := InitLogger(logCfg); err != nil {
		return nil, err
	}

	// CLI overrides are session-only; persisted settings stay untouched.
	return NewAppWithConfig(store, cfg)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the input core over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()
		defer CloseLogger()
		return mcp.NewMCPServer(app).Start()
	},
}

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List candidate target windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		windows, err := app.ListTargetWindows()
		if err != nil {
			return err
		}
		return printJSON(windows)
	},
}

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List emulator instances known to the manager console",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		instances, err := app.ListInstances()
		if err != nil {
			return err
		}
		return printJSON(instances)
	},
}

var clickCmd = &cobra.Command{
	Use:   "click <window> <x> <y>",
	Short: "Click at client coordinates in a window",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := parseHandleArg(args[0])
		if err != nil {
			return err
		}
		x, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid x %q", args[1])
		}
		y, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid y %q", args[2])
		}

		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Click(h, x, y, "left")
	},
}

var textCmd = &cobra.Command{
	Use:   "text <window> <text>",
	Short: "Type text into a window",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := parseHandleArg(args[0])
		if err != nil {
			return err
		}
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.SendText(h, args[1])
	},
}

var keyCmd = &cobra.Command{
	Use:   "key <window> <key>",
	Short: "Tap a key in a window (use '+' for combinations, e.g. ctrl+a)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := parseHandleArg(args[0])
		if err != nil {
			return err
		}
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if strings.Contains(args[1], "+") {
			var keys []string
			for _, k := range strings.Split(args[1], "+") {
				if k = strings.TrimSpace(k); k != "" {
					keys = append(keys, k)
				}
			}
			return app.SendKeyCombination(h, keys)
		}
		return app.SendKey(h, args[1])
	},
}

var shortcutCmd = &cobra.Command{
	Use:   "shortcut <index> <command>",
	Short: "Fire a console shortcut (go_home, go_back, go_menu, volume_up, volume_down)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid instance index %q", args[0])
		}
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return app.Shortcut(index, args[1])
	},
}

func parseHandleArg(s string) (uint64, error) {
	raw := strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
	}
	h, err := strconv.ParseUint(raw, base, 64)
	if err != nil || h == 0 {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	return h, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
