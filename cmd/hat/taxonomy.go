package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/sortinghat/pkg/api"
	"github.com/vanderheijden86/sortinghat/pkg/expansion"
	"github.com/vanderheijden86/sortinghat/pkg/forest"
	"github.com/vanderheijden86/sortinghat/pkg/model"
)

// branchFlag resolves --branch against the configured default.
func (a *app) branchFlag(s string) (model.Branch, error) {
	if s == "" {
		return a.cfg.Branch(), nil
	}
	return model.ParseBranch(s)
}

func (a *app) newTreeCmd() *cobra.Command {
	var (
		branch string
		group  string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the taxonomy of a branch as an indented tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if all {
				byBranch, err := a.client.ListAllBranches(ctx, group)
				if err != nil {
					return fmt.Errorf("listing nodes: %w", err)
				}
				if a.jsonOut {
					return printJSON(a.out, byBranch)
				}
				for i, b := range model.Branches {
					if i > 0 {
						fmt.Fprintln(a.out)
					}
					fmt.Fprintf(a.out, "== %s ==\n", b.Title())
					printForest(a.out, byBranch[b], a.cfg.UI.Indent)
				}
				return nil
			}

			b, err := a.branchFlag(branch)
			if err != nil {
				return err
			}
			nodes, err := a.client.ListNodes(ctx, api.ListNodesParams{Branch: b, GovernanceGroup: group})
			if err != nil {
				return fmt.Errorf("listing nodes: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, nodes)
			}
			printForest(a.out, nodes, a.cfg.UI.Indent)
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "software or hardware (default from config)")
	cmd.Flags().StringVar(&group, "group", "", "Governance group slug filter")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch both branches concurrently")
	return cmd
}

func (a *app) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search nodes across both branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := args[0]
			if !expansion.SearchActive(q) {
				return fmt.Errorf("query must be at least %d characters", expansion.SearchMinRunes)
			}
			nodes, err := a.client.SearchNodes(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, nodes)
			}
			printForest(a.out, nodes, a.cfg.UI.Indent)
			return nil
		},
	}
}

func (a *app) newNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node <id>",
		Short: "Show a node with its ancestors and children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client.GetNode(cmd.Context(), args[0])
			if err != nil {
				if api.IsNotFound(err) {
					return fmt.Errorf("node %s not found", args[0])
				}
				return fmt.Errorf("fetching node: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, d)
			}
			printNodeDetail(a.out, d)
			return nil
		},
	}
}

func (a *app) newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List governance groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.client.ListGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing groups: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, groups)
			}
			printGroups(a.out, groups)
			return nil
		},
	}
}

func (a *app) newCheckCmd() *cobra.Command {
	var (
		branch string
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the node listing for duplicate ids, bad levels, cycles and orphans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var nodes []model.TaxonomyNode
			if all {
				byBranch, err := a.client.ListAllBranches(cmd.Context(), "")
				if err != nil {
					return fmt.Errorf("listing nodes: %w", err)
				}
				for _, b := range model.Branches {
					nodes = append(nodes, byBranch[b]...)
				}
			} else {
				b, err := a.branchFlag(branch)
				if err != nil {
					return err
				}
				nodes, err = a.client.ListNodes(cmd.Context(), api.ListNodesParams{Branch: b})
				if err != nil {
					return fmt.Errorf("listing nodes: %w", err)
				}
			}

			// a full listing must not contain orphans
			problems := forest.Check(nodes, true)
			if a.jsonOut {
				if err := printJSON(a.out, problems); err != nil {
					return err
				}
			} else {
				printProblems(a.out, problems)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) in %d nodes", len(problems), len(nodes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "", "software or hardware (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Check both branches")
	return cmd
}
