package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"packdb/internal/app"
	"packdb/internal/config"
	"packdb/internal/model"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer
// a.Close(ctx). command identifies the CLI command being run.
func newApp(command string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:   "packdb",
	Short: "IRC pack catalog",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s\n", cfg.Database.Type)
		return nil
	},
}

// server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage servers",
}

var serverAddCmd = &cobra.Command{
	Use:   "add HOST",
	Short: "Register a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		nick, _ := cmd.Flags().GetString("nick")
		user, _ := cmd.Flags().GetString("user")
		real, _ := cmd.Flags().GetString("real")
		authName, _ := cmd.Flags().GetString("auth")
		withPassword, _ := cmd.Flags().GetBool("password")

		auth, err := model.ParseAuthMode(authName)
		if err != nil {
			return err
		}

		var userPassword string
		if auth.PasswordRequired() {
			if userPassword, err = promptPassword("NickServ password"); err != nil {
				return err
			}
		}

		var password string
		if withPassword {
			if password, err = promptPassword("Server password"); err != nil {
				return err
			}
		}

		a, err := newApp("server add")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := a.Controller().AddServer(args[0], port, nick, user, real, auth, userPassword, password); err != nil {
			return fmt.Errorf("adding server: %w", err)
		}

		fmt.Printf("Added server %s\n", args[0])
		return nil
	},
}

var serverRmCmd = &cobra.Command{
	Use:   "rm HOST",
	Short: "Delete a server and everything under it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("server rm")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		deleted, err := a.Controller().DeleteServer(args[0])
		if err != nil {
			return fmt.Errorf("deleting server: %w", err)
		}
		if !deleted {
			fmt.Printf("No server %s\n", args[0])
			return nil
		}

		fmt.Printf("Deleted server %s\n", args[0])
		return nil
	},
}

var serverSetPasswordCmd = &cobra.Command{
	Use:   "set-password HOST",
	Short: "Change a server's connect password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, _ := cmd.Flags().GetBool("clear")

		var password string
		var err error
		if !clear {
			if password, err = promptPassword("Server password"); err != nil {
				return err
			}
		}

		a, err := newApp("server set-password")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		changed, err := a.Controller().SetServerPassword(args[0], password)
		if err != nil {
			return fmt.Errorf("setting server password: %w", err)
		}
		if !changed {
			fmt.Printf("No server %s\n", args[0])
			return nil
		}

		fmt.Printf("Updated password for %s\n", args[0])
		return nil
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the full catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("server list")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		servers, err := a.Controller().GetServerList()
		if err != nil {
			return err
		}

		if len(servers) == 0 {
			fmt.Println("No servers registered.")
			return nil
		}

		for _, s := range servers {
			fmt.Printf("%s:%d  nick=%s  auth=%s\n", s.Host, s.Port, s.Nick, s.Auth)
			for _, ch := range s.Channels {
				fmt.Printf("  %s\n", ch.Name)
				for _, b := range ch.Bots {
					list := ""
					if b.ListEnabled {
						list = "  [list]"
					}
					fmt.Printf("    %s  %d pack(s)%s\n", b.Name, len(b.Packs), list)
				}
			}
		}
		return nil
	},
}

// channel command
var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Manage channels",
}

var channelAddCmd = &cobra.Command{
	Use:   "add HOST CHANNEL",
	Short: "Register a channel on a server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		withPassword, _ := cmd.Flags().GetBool("password")

		var password string
		var err error
		if withPassword {
			if password, err = promptPassword("Channel password"); err != nil {
				return err
			}
		}

		a, err := newApp("channel add")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := a.Controller().AddChannel(args[0], args[1], password); err != nil {
			return fmt.Errorf("adding channel: %w", err)
		}

		fmt.Printf("Added channel %s on %s\n", args[1], args[0])
		return nil
	},
}

var channelRmCmd = &cobra.Command{
	Use:   "rm HOST CHANNEL",
	Short: "Delete a channel and everything under it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("channel rm")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		deleted, err := a.Controller().DeleteChannel(args[0], args[1])
		if err != nil {
			return fmt.Errorf("deleting channel: %w", err)
		}
		if !deleted {
			fmt.Printf("No channel %s on %s\n", args[1], args[0])
			return nil
		}

		fmt.Printf("Deleted channel %s on %s\n", args[1], args[0])
		return nil
	},
}

var channelSetPasswordCmd = &cobra.Command{
	Use:   "set-password HOST CHANNEL",
	Short: "Change a channel's password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, _ := cmd.Flags().GetBool("clear")

		var password string
		var err error
		if !clear {
			if password, err = promptPassword("Channel password"); err != nil {
				return err
			}
		}

		a, err := newApp("channel set-password")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		changed, err := a.Controller().SetChannelPassword(args[0], args[1], password)
		if err != nil {
			return fmt.Errorf("setting channel password: %w", err)
		}
		if !changed {
			fmt.Printf("No channel %s on %s\n", args[1], args[0])
			return nil
		}

		fmt.Printf("Updated password for %s on %s\n", args[1], args[0])
		return nil
	},
}

// bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage bots",
}

var botAddCmd = &cobra.Command{
	Use:   "add HOST CHANNEL NICK",
	Short: "Register a bot in a channel",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		listEnabled, _ := cmd.Flags().GetBool("list")

		a, err := newApp("bot add")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := a.Controller().AddBot(args[0], args[1], args[2], listEnabled); err != nil {
			return fmt.Errorf("adding bot: %w", err)
		}

		fmt.Printf("Added bot %s in %s on %s\n", args[2], args[1], args[0])
		return nil
	},
}

var botRmCmd = &cobra.Command{
	Use:   "rm HOST CHANNEL NICK",
	Short: "Delete a bot and its packs",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("bot rm")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		deleted, err := a.Controller().DeleteBot(args[0], args[1], args[2])
		if err != nil {
			return fmt.Errorf("deleting bot: %w", err)
		}
		if !deleted {
			fmt.Printf("No bot %s in %s on %s\n", args[2], args[1], args[0])
			return nil
		}

		fmt.Printf("Deleted bot %s in %s on %s\n", args[2], args[1], args[0])
		return nil
	},
}

var botMoveCmd = &cobra.Command{
	Use:   "move HOST CHANNEL NICK NEWCHANNEL",
	Short: "Move a bot to another channel on the same server",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("bot move")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		moved, err := a.Controller().SetBotChannel(args[0], args[1], args[3], args[2])
		if err != nil {
			return fmt.Errorf("moving bot: %w", err)
		}
		if !moved {
			fmt.Println("Bot or target channel not found.")
			return nil
		}

		fmt.Printf("Moved bot %s from %s to %s\n", args[2], args[1], args[3])
		return nil
	},
}

// pack command
var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage packs",
}

var packAddCmd = &cobra.Command{
	Use:   "add HOST CHANNEL NICK NUMBER FILE SIZE",
	Short: "Record or update a pack offered by a bot",
	Args:  cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		introduce, _ := cmd.Flags().GetBool("introduce")

		number, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid pack number %q", args[3])
		}

		a, err := newApp("pack add")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := a.Controller().UpdateOrAddPack(args[0], args[1], args[2], number, args[4], args[5], introduce); err != nil {
			return fmt.Errorf("recording pack: %w", err)
		}

		fmt.Printf("Recorded pack #%d (%s) for %s\n", number, args[4], args[2])
		return nil
	},
}

var packRmCmd = &cobra.Command{
	Use:   "rm HOST CHANNEL NICK NUMBER",
	Short: "Delete a pack",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid pack number %q", args[3])
		}

		a, err := newApp("pack rm")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		deleted, err := a.Controller().DeletePack(args[0], args[1], args[2], number)
		if err != nil {
			return fmt.Errorf("deleting pack: %w", err)
		}
		if !deleted {
			fmt.Printf("No pack #%d for %s\n", number, args[2])
			return nil
		}

		fmt.Printf("Deleted pack #%d for %s\n", number, args[2])
		return nil
	},
}

// find command
var findCmd = &cobra.Command{
	Use:   "find TERM",
	Short: "Search packs by file name substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		channel, _ := cmd.Flags().GetString("channel")
		bot, _ := cmd.Flags().GetString("bot")

		a, err := newApp("find")
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		term := args[0]
		var matches []*model.PackMatch
		switch {
		case bot != "":
			matches, err = a.Controller().FindPackByBot(host, channel, bot, term)
		case channel != "":
			matches, err = a.Controller().FindPackInChannel(host, channel, term)
		case host != "":
			matches, err = a.Controller().FindPackOnServer(host, term)
		default:
			matches, err = a.Controller().FindPack(term)
		}
		if err != nil {
			return fmt.Errorf("searching: %w", err)
		}

		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("%s %s %s #%d  %s  %s\n", m.Host, m.Channel, m.Bot, m.Number, m.File, m.Size)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// server subcommands
	serverCmd.AddCommand(serverAddCmd)
	serverAddCmd.Flags().IntP("port", "p", 6667, "Server port")
	serverAddCmd.Flags().String("nick", "", "Nickname to use")
	serverAddCmd.Flags().String("user", "", "Username (defaults to nick)")
	serverAddCmd.Flags().String("real", "", "Real name (defaults to nick)")
	serverAddCmd.Flags().String("auth", "none", "Authentication mode: none or nickserv")
	serverAddCmd.Flags().Bool("password", false, "Prompt for a server password")
	serverCmd.AddCommand(serverRmCmd)
	serverCmd.AddCommand(serverSetPasswordCmd)
	serverSetPasswordCmd.Flags().Bool("clear", false, "Remove the password instead of prompting")
	serverCmd.AddCommand(serverListCmd)

	// channel subcommands
	channelCmd.AddCommand(channelAddCmd)
	channelAddCmd.Flags().Bool("password", false, "Prompt for a channel password")
	channelCmd.AddCommand(channelRmCmd)
	channelCmd.AddCommand(channelSetPasswordCmd)
	channelSetPasswordCmd.Flags().Bool("clear", false, "Remove the password instead of prompting")

	// bot subcommands
	botCmd.AddCommand(botAddCmd)
	botAddCmd.Flags().Bool("list", false, "Bot serves pack lists")
	botCmd.AddCommand(botRmCmd)
	botCmd.AddCommand(botMoveCmd)

	// pack subcommands
	packCmd.AddCommand(packAddCmd)
	packAddCmd.Flags().Bool("introduce", false, "Create the bot if it is not known yet")
	packCmd.AddCommand(packRmCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().String("host", "", "Limit the search to one server")
	findCmd.Flags().String("channel", "", "Limit the search to one channel (requires --host)")
	findCmd.Flags().String("bot", "", "Limit the search to one bot (requires --host and --channel)")
	rootCmd.AddCommand(watchCmd)
}
