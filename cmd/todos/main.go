package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/fribble186/todos/internal/config"
	"github.com/fribble186/todos/internal/remote"
	"github.com/fribble186/todos/internal/storage"
	"github.com/fribble186/todos/internal/store"
	"github.com/fribble186/todos/internal/window"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	cfg := config.Default()
	if c, err := config.Load("todos.yaml"); err == nil {
		cfg = c
	}
	cfg.FromEnv()

	kv, err := storage.NewFileKV(cfg.Server.DataDir)
	if err != nil {
		fatal(err)
	}
	st, err := store.New(kv, logger)
	if err != nil {
		fatal(err)
	}
	client := remote.NewClient(remote.Options{
		BaseURL:        cfg.Client.BaseURL,
		Debounce:       cfg.Client.Debounce(),
		VerifyCooldown: cfg.Client.VerifyCooldown(),
		Logger:         logger,
	})
	client.SetStore(st)
	st.SetSyncer(client)

	if err := run(os.Args[1], os.Args[2:], st, client, logger); err != nil {
		fatal(err)
	}

	// One-shot process: dispatch any pending push before exiting.
	client.Flush()
	if _, err := client.State(); err != nil {
		fmt.Fprintln(os.Stderr, "sync:", err)
	}
}

func run(cmd string, args []string, st *store.Store, client *remote.Client, logger zerolog.Logger) error {
	switch cmd {
	case "add":
		return cmdAdd(args, st)
	case "list":
		return cmdList(args, st)
	case "done":
		return withID(args, st.MarkDone)
	case "undone":
		return withID(args, st.MarkUndone)
	case "delete":
		return withID(args, st.Delete)
	case "reschedule":
		return cmdReschedule(args, st)
	case "verify":
		if len(args) != 1 {
			return fmt.Errorf("usage: todos verify <email>")
		}
		return client.SendVerify(args[0])
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: todos login <email> <code>")
		}
		return client.Login(args[0], args[1])
	case "logout":
		return st.ClearEmail()
	case "sync":
		client.StartupSync()
		return nil
	case "watch":
		return cmdWatch(st, logger)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdAdd(args []string, st *store.Store) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	win := fs.String("window", string(window.All), "day|week|month|year|all|loop")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: todos add [--window day] <content>")
	}
	w, err := window.Parse(*win)
	if err != nil {
		return err
	}
	t := st.Add(fs.Arg(0), w)
	fmt.Printf("added %s (due %s)\n", t.ID, t.EndTime)
	return nil
}

func cmdList(args []string, st *store.Store) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	win := fs.String("window", string(window.All), "day|week|month|year|all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	w, err := window.Parse(*win)
	if err != nil {
		return err
	}
	for _, t := range window.Visible(time.Now(), w, st.Tasks()) {
		mark := " "
		if t.Done() {
			mark = "x"
		}
		loop := ""
		if t.Loop {
			loop = " (daily)"
		}
		fmt.Printf("[%s] %s  %s  due %s%s\n", mark, t.ID, t.Content, t.EndTime, loop)
	}
	return nil
}

func cmdReschedule(args []string, st *store.Store) error {
	fs := flag.NewFlagSet("reschedule", flag.ContinueOnError)
	win := fs.String("window", string(window.Day), "day|week|month|year|all|loop")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: todos reschedule [--window week] <id>")
	}
	w, err := window.Parse(*win)
	if err != nil {
		return err
	}
	st.Reschedule(fs.Arg(0), w)
	return nil
}

func withID(args []string, op func(string)) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one task id")
	}
	op(args[0])
	return nil
}

// cmdWatch keeps the process alive, printing the collection on every
// change and running the midnight rollover schedule.
func cmdWatch(st *store.Store, logger zerolog.Logger) error {
	sched, err := store.NewRolloverScheduler(st, logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	ch := st.Watch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case rev := <-ch:
			fmt.Printf("-- revision %d --\n", rev)
			for _, t := range window.Visible(time.Now(), window.All, st.Tasks()) {
				mark := " "
				if t.Done() {
					mark = "x"
				}
				fmt.Printf("[%s] %s  %s\n", mark, t.ID, t.Content)
			}
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("usage:")
	fmt.Println("  todos add [--window day|week|month|year|all|loop] <content>")
	fmt.Println("  todos list [--window day|week|month|year|all]")
	fmt.Println("  todos done <id> | undone <id> | delete <id>")
	fmt.Println("  todos reschedule [--window week] <id>")
	fmt.Println("  todos verify <email> | login <email> <code> | logout | sync")
	fmt.Println("  todos watch")
	fmt.Println("")
	fmt.Println("config: todos.yaml, .env, TODOS_* environment variables")
}
