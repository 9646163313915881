package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/models"
)

const takeHelp = "Commands: a <answer>  n(ext)  p(revious)  s(ubmit)  q(uit)"

// announce reports how often the countdown is printed for the remaining seconds
func announce(remaining int) bool {
	switch {
	case remaining <= 10:
		return true
	case remaining < exam.LowTimeThreshold:
		return remaining%30 == 0
	default:
		return remaining%300 == 0
	}
}

func cmdTake(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: portalctl take <assessment-id>")
	}
	if err := a.sess.RequireRole(); err != nil {
		return err
	}

	done := make(chan exam.Event, 1)
	listener := func(ev exam.Event) {
		switch ev.Type {
		case exam.EventTick:
			if announce(ev.Remaining) {
				fmt.Printf("\n[time left %s]\n> ", exam.FormatClock(ev.Remaining))
			}
		case exam.EventSubmitFailed:
			fmt.Printf("\nSubmit failed: %v\nYou can retry with s.\n> ", ev.Err)
		case exam.EventSubmitted, exam.EventAlreadySubmitted:
			select {
			case done <- ev:
			default:
			}
		}
	}

	c := exam.NewController(a.api, args[0], exam.WithListener(listener))
	defer c.Close()

	if err := c.Load(ctx); err != nil {
		return err
	}

	snap := c.Snapshot()
	if snap.State == exam.StateAlreadySubmitted {
		fmt.Println("You have already submitted this assessment.")
		fmt.Println("Result:", snap.Navigate)
		return nil
	}

	fmt.Printf("%s  (%d questions, %s)\n%s\n", snap.Title, snap.QuestionCount, snap.Clock, takeHelp)
	printQuestion(snap)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted. Your answers were not submitted.")
			return ctx.Err()

		case ev := <-done:
			printResult(ev, c.Snapshot())
			return nil

		case line, ok := <-lines:
			if !ok {
				return errors.New("input closed before submitting")
			}
			quit, err := handleLine(ctx, c, strings.TrimSpace(line))
			if err != nil && !errors.Is(err, exam.ErrSubmitInFlight) {
				fmt.Println("!", err)
			}
			if quit {
				fmt.Println("Leaving without submitting.")
				return nil
			}
			if st := c.State(); !st.IsTerminal() {
				printQuestion(c.Snapshot())
			}
		}
	}
}

func handleLine(ctx context.Context, c *exam.Controller, line string) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "a":
		return false, c.SelectAnswer(strings.TrimSpace(arg))
	case "n":
		c.Next()
	case "p":
		c.Previous()
	case "s":
		_, err := c.Submit(ctx, false)
		return false, err
	case "q":
		return true, nil
	case "":
	default:
		fmt.Println(takeHelp)
	}
	return false, nil
}

func printQuestion(snap exam.Snapshot) {
	q := snap.Question
	if q == nil {
		return
	}

	low := ""
	if snap.LowTime {
		low = "  LOW TIME"
	}
	fmt.Printf("\nQuestion %d of %d  [%s] %d pts  answered %d/%d  %s%s\n",
		snap.Cursor+1, snap.QuestionCount, q.Type, q.Points, snap.Answered, snap.QuestionCount, snap.Clock, low)
	fmt.Println(q.Text)
	for _, opt := range q.Options {
		marker := " "
		if opt == snap.Answer {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, opt)
	}
	if q.Type != models.QuestionMCQ && snap.Answer != "" {
		fmt.Printf("  your answer: %s\n", snap.Answer)
	}
	if snap.Error != "" {
		fmt.Println("! last submit failed:", snap.Error)
	}
	fmt.Print("> ")
}

func printResult(ev exam.Event, snap exam.Snapshot) {
	if ev.Type == exam.EventAlreadySubmitted {
		fmt.Println("\nThis assessment was already submitted.")
		return
	}
	if ev.Auto {
		fmt.Println("\nTime is up. Your answers were submitted automatically.")
	} else {
		fmt.Println("\nSubmitted.")
	}
	if r := ev.Result; r != nil {
		verdict := "not passed"
		if r.Passed {
			verdict = "passed"
		}
		fmt.Printf("Score: %d/%d (%s)\n", r.Score, r.TotalMarks, verdict)
		if r.NextPhaseUnlocked && r.NextPhaseID != "" {
			fmt.Println("Next phase unlocked:", r.NextPhaseID)
		}
	}
	fmt.Println("Result:", snap.Navigate)
}

