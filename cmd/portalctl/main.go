package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/config"
	"github.com/terra-clan/assessment-portal/internal/session"
	"github.com/terra-clan/assessment-portal/pkg/client"
	"github.com/terra-clan/assessment-portal/pkg/logger"
)

// sessionKey names the single terminal session in the session file
const sessionKey = "default"

const usage = `Usage: portalctl [-api URL] [-session FILE] [-v] <command> [args]

Commands:
  login -email E -password P [-role R]   log in
  logout                                 forget the stored token
  whoami                                 show the stored session
  dashboard                              show the dashboard for your role
  assessments [-q SEARCH]                list assessments
  take <assessment-id>                   take an assessment
  publish <draft.yaml | name>            publish a multi-phase draft
  drafts                                 list the draft library
  interviews [-status S]                 list interviews
  book <slot-id>                         book an interview slot
`

// app is what every command receives
type app struct {
	cfg  *config.Config
	sess *session.Session
	api  *client.Client
}

func main() {
	apiURL := flag.String("api", "", "platform API base URL (overrides PORTAL_API_URL)")
	sessionFile := flag.String("session", "", "session file (overrides SESSION_FILE)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log.Logger = logger.NewWithWriter(os.Stderr, level, true, false)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if *apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(*apiURL, "/")
	}
	if *sessionFile != "" {
		cfg.Sessions.FilePath = *sessionFile
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess := session.New(session.NewFileStore(cfg.Sessions.FilePath), sessionKey)
	if err := sess.Restore(ctx); err != nil {
		fail(err)
	}

	a := &app{
		cfg:  cfg,
		sess: sess,
		api:  client.NewClient(cfg.API.BaseURL, sess, client.WithTimeout(cfg.API.Timeout)),
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
	if err := run(ctx, a, args); err != nil {
		fail(err)
	}
}

var commands = map[string]func(ctx context.Context, a *app, args []string) error{
	"login":       cmdLogin,
	"logout":      cmdLogout,
	"whoami":      cmdWhoami,
	"dashboard":   cmdDashboard,
	"assessments": cmdAssessments,
	"take":        cmdTake,
	"publish":     cmdPublish,
	"drafts":      cmdDrafts,
	"interviews":  cmdInterviews,
	"book":        cmdBook,
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
