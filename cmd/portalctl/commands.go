package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/screens"
)

func isInterviewer(role models.Role) bool {
	return role == models.RoleInterviewer || role == models.RoleAdmin
}

func table() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", "", "candidate or interviewer")
	_ = fs.Parse(args)

	path, err := screens.NewAuth(a.sess, a.api).Login(ctx, *email, *password, models.Role(*role))
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", a.sess.Role(), path)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if _, err := screens.NewAuth(a.sess, a.api).Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	if !a.sess.IsAuthenticated() {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("Role:    %s\n", a.sess.Role())
	if u := a.sess.User(); u != nil {
		fmt.Printf("User:    %s <%s>\n", u.Name, u.Email)
	}
	if exp, ok := a.sess.Expiry(); ok {
		fmt.Printf("Expires: %s (in %s)\n", exp.Format(time.RFC1123), time.Until(exp).Round(time.Minute))
	}
	fmt.Printf("API:     %s\n", a.cfg.API.BaseURL)
	return nil
}

func cmdDashboard(ctx context.Context, a *app, _ []string) error {
	if isInterviewer(a.sess.Role()) {
		view, err := screens.NewInterviewerDashboard(a.sess, a.api).Load(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Active tests: %d   Series: %d\n\n", view.ActiveTests, view.Series)
		printAssessments(view.Recent)
		if view.HasMore {
			fmt.Println("\n(more: portalctl assessments)")
		}
		return nil
	}

	view, err := screens.NewCandidateDashboard(a.sess, a.api).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Available: %d   Completed: %d\n\n", view.Available, view.Completed)
	printCards(view.Recent)
	if view.HasMore {
		fmt.Println("\n(more: portalctl assessments)")
	}
	return nil
}

func cmdAssessments(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("assessments", flag.ExitOnError)
	search := fs.String("q", "", "filter by title or description")
	_ = fs.Parse(args)

	if isInterviewer(a.sess.Role()) {
		screen := screens.NewInterviewerAssessments(a.sess, a.api, a.cfg.Public.BaseURL)
		list, err := screen.Load(ctx, *search)
		if err != nil {
			return err
		}
		printAssessments(list)
		return nil
	}

	cards, err := screens.NewCandidateAssessments(a.sess, a.api).Load(ctx)
	if err != nil {
		return err
	}
	printCards(cards)
	return nil
}

func cmdDrafts(_ context.Context, a *app, _ []string) error {
	lib := authoring.NewLibrary()
	if err := lib.LoadFromDir(a.cfg.Drafts.Dir); err != nil {
		return err
	}

	w := table()
	fmt.Fprintln(w, "NAME\tTITLE\tPHASES\tQUESTIONS")
	for _, d := range lib.List() {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.Name, d.Title, d.Phases, d.Questions)
	}
	return w.Flush()
}

// loadDraft reads a draft file, falling back to a draft library name
func loadDraft(a *app, ref string) (*authoring.Draft, error) {
	if _, err := os.Stat(ref); err == nil {
		return authoring.LoadDraft(ref)
	}

	lib := authoring.NewLibrary()
	if err := lib.LoadFromDir(a.cfg.Drafts.Dir); err != nil {
		return nil, err
	}
	if d := lib.Get(ref); d != nil {
		return d, nil
	}
	return nil, fmt.Errorf("no draft file or library draft named %q", ref)
}

func cmdPublish(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: portalctl publish <draft.yaml | library-name>")
	}

	draft, err := loadDraft(a, args[0])
	if err != nil {
		return err
	}

	screen := screens.NewInterviewerAssessments(a.sess, a.api, a.cfg.Public.BaseURL)
	ids, err := screen.Publish(ctx, draft)
	if err != nil {
		var verr *authoring.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				fmt.Fprintln(os.Stderr, " -", p)
			}
		}
		return err
	}

	fmt.Printf("Published %d phase(s)\n", len(ids))
	for i, id := range ids {
		fmt.Printf("  Phase %d: %s\n", i+1, id)
	}
	fmt.Println("Share:", screen.ShareURL(ids[0]))
	return nil
}

func cmdInterviews(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("interviews", flag.ExitOnError)
	status := fs.String("status", "all", "all, available, scheduled, completed or cancelled")
	_ = fs.Parse(args)

	if isInterviewer(a.sess.Role()) {
		view, err := screens.NewInterviewerInterviews(a.sess, a.api).Load(ctx, *status)
		if err != nil {
			return err
		}
		st := view.Stats
		fmt.Printf("Total: %d   Available: %d   Scheduled: %d   Completed: %d\n\n", st.Total, st.Available, st.Scheduled, st.Completed)
		printInterviews(view.Interviews)
		return nil
	}

	view, err := screens.NewCandidateInterviews(a.sess, a.api).Load(ctx)
	if err != nil {
		return err
	}
	fmt.Println("My interviews:")
	printInterviews(view.Mine)
	fmt.Println("\nOpen slots:")
	printInterviews(view.Available)
	return nil
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: portalctl book <slot-id>")
	}

	view, err := screens.NewCandidateInterviews(a.sess, a.api).Book(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(view.Notice)
	return nil
}

func printCards(cards []screens.CardView) {
	w := table()
	fmt.Fprintln(w, "ID\tTITLE\tPHASE\tMIN\tQUESTIONS\tSTATUS\tACTION")
	for _, c := range cards {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			c.ID, c.DisplayTitle, c.Phase, c.Duration, c.QuestionCount, c.Status, c.Action.Label)
	}
	w.Flush()
}

func printAssessments(list []models.Assessment) {
	w := table()
	fmt.Fprintln(w, "ID\tTITLE\tPHASE\tMIN\tQUESTIONS\tCREATED")
	for _, a := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			a.ID, a.Title, a.Phase, a.Duration, len(a.Questions), a.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()
}

func printInterviews(list []models.Interview) {
	if len(list) == 0 {
		fmt.Println("  (none)")
		return
	}
	w := table()
	fmt.Fprintln(w, "ID\tTITLE\tTYPE\tWHEN\tMIN\tSTATUS")
	for _, iv := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			iv.ID, iv.Title, iv.Type, iv.ScheduledAt.Local().Format("2006-01-02 15:04"), iv.Duration, iv.Status)
	}
	w.Flush()
}
