package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"packdb/internal/model"
	"packdb/internal/packdb"

	"github.com/spf13/cobra"
)

// printingObserver writes every catalog change event to stdout.
type printingObserver struct {
	packdb.NopObserver
}

func (printingObserver) ServerAdded(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) {
	fmt.Printf("event: server added %s:%d nick=%s auth=%s\n", host, port, nick, auth)
}

func (printingObserver) ChannelAdded(host, channel, password string) {
	fmt.Printf("event: channel added %s %s\n", host, channel)
}

func (printingObserver) BotAdded(host, channel, bot string, listEnabled bool) {
	fmt.Printf("event: bot added %s %s %s list=%v\n", host, channel, bot, listEnabled)
}

func (printingObserver) PackAdded(host, channel, bot string, number int, file, size string) {
	fmt.Printf("event: pack added %s %s %s #%d %s %s\n", host, channel, bot, number, file, size)
}

func (printingObserver) PackUpdated(host, channel, bot string, number int, oldFile, newFile, oldSize, newSize string) {
	fmt.Printf("event: pack updated %s %s %s #%d %s %s\n", host, channel, bot, number, newFile, newSize)
}

func (printingObserver) BotMoved(host, oldChannel, newChannel, bot string) {
	fmt.Printf("event: bot moved %s %s -> %s %s\n", host, oldChannel, newChannel, bot)
}

func (printingObserver) BotListFlagChanged(host, channel, bot string, oldFlag, newFlag bool) {
	fmt.Printf("event: bot list flag %s %s %s %v -> %v\n", host, channel, bot, oldFlag, newFlag)
}

func (printingObserver) ServerDeleted(host string, port int, nick, user, real string, auth model.AuthMode, userPassword, password string) {
	fmt.Printf("event: server deleted %s:%d\n", host, port)
}

func (printingObserver) ChannelDeleted(host, channel, password string) {
	fmt.Printf("event: channel deleted %s %s\n", host, channel)
}

func (printingObserver) BotDeleted(host, channel, bot string, listEnabled bool) {
	fmt.Printf("event: bot deleted %s %s %s\n", host, channel, bot)
}

func (printingObserver) PackDeleted(host, channel, bot string, number int, file, size string) {
	fmt.Printf("event: pack deleted %s %s %s #%d %s\n", host, channel, bot, number, file)
}

func (printingObserver) Closed() {
	fmt.Println("event: catalog closed")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive mode with live change events",
	Long: `Starts an interactive session against the catalog. Commands are
queued and run in the background; change events are printed as they
happen. Type "help" for the command list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("watch")
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer a.Close(ctx)

		f, err := a.Async().AddObserver(printingObserver{})
		if err != nil {
			return err
		}
		if _, err := f.Wait(ctx); err != nil {
			return fmt.Errorf("registering observer: %w", err)
		}

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("packdb watch (type \"help\" or \"quit\")")
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				break
			}
			if err := runWatchLine(ctx, a.Async(), line); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

const watchHelp = `commands:
  add-server HOST [PORT]
  add-channel HOST CHANNEL
  add-bot HOST CHANNEL NICK
  add-pack HOST CHANNEL NICK NUMBER FILE SIZE
  set-list HOST CHANNEL NICK on|off
  move-bot HOST CHANNEL NICK NEWCHANNEL
  del-server HOST
  del-channel HOST CHANNEL
  del-bot HOST CHANNEL NICK
  del-pack HOST CHANNEL NICK NUMBER
  find TERM
  list
  quit`

// runWatchLine parses one interactive command and runs it through the
// async controller, waiting on the returned future.
func runWatchLine(ctx context.Context, async *packdb.AsyncController, line string) error {
	fields := strings.Fields(line)
	cmd, rest := fields[0], fields[1:]

	argc := func(n int) error {
		if len(rest) != n {
			return fmt.Errorf("%s takes %d argument(s)", cmd, n)
		}
		return nil
	}

	switch cmd {
	case "help":
		fmt.Println(watchHelp)
		return nil

	case "add-server":
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("add-server takes HOST [PORT]")
		}
		port := 6667
		if len(rest) == 2 {
			p, err := strconv.Atoi(rest[1])
			if err != nil {
				return fmt.Errorf("invalid port %q", rest[1])
			}
			port = p
		}
		f, err := async.AddServer(rest[0], port, "packdb", "", "", model.AuthNone, "", "")
		if err != nil {
			return err
		}
		_, err = f.Wait(ctx)
		return err

	case "add-channel":
		if err := argc(2); err != nil {
			return err
		}
		f, err := async.AddChannel(rest[0], rest[1], "")
		if err != nil {
			return err
		}
		_, err = f.Wait(ctx)
		return err

	case "add-bot":
		if err := argc(3); err != nil {
			return err
		}
		f, err := async.AddBot(rest[0], rest[1], rest[2], false)
		if err != nil {
			return err
		}
		_, err = f.Wait(ctx)
		return err

	case "add-pack":
		if err := argc(6); err != nil {
			return err
		}
		number, err := strconv.Atoi(rest[3])
		if err != nil {
			return fmt.Errorf("invalid pack number %q", rest[3])
		}
		f, err := async.UpdateOrAddPack(rest[0], rest[1], rest[2], number, rest[4], rest[5], true)
		if err != nil {
			return err
		}
		_, err = f.Wait(ctx)
		return err

	case "set-list":
		if err := argc(4); err != nil {
			return err
		}
		if rest[3] != "on" && rest[3] != "off" {
			return fmt.Errorf("set-list wants on or off, got %q", rest[3])
		}
		f, err := async.SetBotListEnabled(rest[0], rest[1], rest[2], rest[3] == "on")
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "move-bot":
		if err := argc(4); err != nil {
			return err
		}
		f, err := async.SetBotChannel(rest[0], rest[1], rest[3], rest[2])
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "del-server":
		if err := argc(1); err != nil {
			return err
		}
		f, err := async.DeleteServer(rest[0])
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "del-channel":
		if err := argc(2); err != nil {
			return err
		}
		f, err := async.DeleteChannel(rest[0], rest[1])
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "del-bot":
		if err := argc(3); err != nil {
			return err
		}
		f, err := async.DeleteBot(rest[0], rest[1], rest[2])
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "del-pack":
		if err := argc(4); err != nil {
			return err
		}
		number, err := strconv.Atoi(rest[3])
		if err != nil {
			return fmt.Errorf("invalid pack number %q", rest[3])
		}
		f, err := async.DeletePack(rest[0], rest[1], rest[2], number)
		if err != nil {
			return err
		}
		return reportApplied(ctx, f)

	case "find":
		if err := argc(1); err != nil {
			return err
		}
		f, err := async.FindPack(rest[0])
		if err != nil {
			return err
		}
		matches, err := f.Wait(ctx)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%s %s %s #%d  %s  %s\n", m.Host, m.Channel, m.Bot, m.Number, m.File, m.Size)
		}
		return nil

	case "list":
		if err := argc(0); err != nil {
			return err
		}
		f, err := async.GetServerList()
		if err != nil {
			return err
		}
		servers, err := f.Wait(ctx)
		if err != nil {
			return err
		}
		if len(servers) == 0 {
			fmt.Println("no servers")
			return nil
		}
		for _, s := range servers {
			fmt.Printf("%s:%d\n", s.Host, s.Port)
			for _, ch := range s.Channels {
				fmt.Printf("  %s\n", ch.Name)
				for _, b := range ch.Bots {
					fmt.Printf("    %s  %d pack(s)\n", b.Name, len(b.Packs))
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
}

// reportApplied waits on a bool future and prints whether the change
// took effect.
func reportApplied(ctx context.Context, f *packdb.Future[bool]) error {
	applied, err := f.Wait(ctx)
	if err != nil {
		return err
	}
	if !applied {
		fmt.Println("not found")
	}
	return nil
}
