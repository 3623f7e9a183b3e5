package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/workflow"
)

// isTerminal checks if stdin is connected to a terminal
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptURL asks for the product URL.
func promptURL() (string, error) {
	var url string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Product URL").
				Placeholder("https://example.com/product").
				Value(&url).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("URL is required")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(url), nil
}

func (a *app) newClassifyCmd() *cobra.Command {
	var (
		modelName string
		steps     bool
	)
	cmd := &cobra.Command{
		Use:   "classify [url]",
		Short: "Classify a product URL and print the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var url string
			if len(args) == 1 {
				url = args[0]
			} else if isTerminal() {
				var err error
				if url, err = promptURL(); err != nil {
					return err
				}
			}

			if modelName == "" {
				modelName = a.cfg.API.Model
			}
			ctl := workflow.New(a.client, modelName)
			job := ctl.Submit(url)
			if job == nil {
				return ctl.Err()
			}
			if !a.jsonOut {
				fmt.Fprintf(a.errOut, "Classifying %s…\n", job.URL)
			}
			ctl.Complete(job.Run(cmd.Context()))
			if ctl.Status() != workflow.Ready {
				return ctl.Err()
			}
			if a.jsonOut {
				return printJSON(a.out, ctl.Result())
			}
			printClassification(a.out, ctl.Result(), steps)
			return nil
		},
	}
	cmd.Flags().StringVar(&modelName, "model", "", "LLM model override (default from config, then server)")
	cmd.Flags().BoolVar(&steps, "steps", false, "Show pipeline steps")
	return cmd
}

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		url    string
		limit  int
		offset int
		show   string
		steps  bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent classifications, or show one with --show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if show != "" {
				d, err := a.client.GetClassification(cmd.Context(), show)
				if err != nil {
					if api.IsNotFound(err) {
						return fmt.Errorf("classification %s not found", show)
					}
					return fmt.Errorf("fetching classification: %w", err)
				}
				if a.jsonOut {
					return printJSON(a.out, d)
				}
				printClassification(a.out, d, steps)
				return nil
			}

			p := api.ListClassificationsParams{URL: url, Limit: limit, Offset: offset}
			if err := p.Validate(); err != nil {
				return err
			}
			items, err := a.client.ListClassifications(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("listing classifications: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, items)
			}
			printHistory(a.out, items)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Only classifications of this URL")
	cmd.Flags().IntVar(&limit, "limit", 20, fmt.Sprintf("Maximum results (1-%d)", api.MaxListLimit))
	cmd.Flags().IntVar(&offset, "offset", 0, "Results to skip")
	cmd.Flags().StringVar(&show, "show", "", "Show one classification by id")
	cmd.Flags().BoolVar(&steps, "steps", false, "Show pipeline steps with --show")
	return cmd
}
