package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ratingsync/internal/api"
	"ratingsync/internal/library"
	"ratingsync/internal/ratings"
	"ratingsync/internal/services"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage library items",
	}
	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsAddCommand(ctx))
	itemsCmd.AddCommand(newItemsRemoveCommand(ctx))
	itemsCmd.AddCommand(newItemsUpdateCommand(ctx))
	itemsCmd.AddCommand(newItemsCollectionsCommand(ctx))
	return itemsCmd
}

func parseKindFlag(value string) (library.Kind, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	kind, ok := library.ParseKind(value)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "cli", "parse kind",
			fmt.Sprintf("unknown kind %q (use movie or show)", value), nil)
	}
	return kind, nil
}

func parseCollections(values []string) []ratings.Collection {
	var out []ratings.Collection
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		// "id=name" assigns both; a bare value is a name.
		if id, name, ok := strings.Cut(v, "="); ok {
			out = append(out, ratings.Collection{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)})
			continue
		}
		out = append(out, ratings.Collection{Name: v})
	}
	return out
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var missing bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library items and their ratings",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			store, err := ctx.libraryStore()
			if err != nil {
				return err
			}
			items, err := store.List(cmd.Context(), library.ListOptions{Kind: kind, MissingOnly: missing})
			if err != nil {
				return err
			}
			dtos := api.FromItems(items)
			if ctx.jsonOutput() {
				if dtos == nil {
					dtos = []api.LibraryItem{}
				}
				return writeJSON(cmd, api.ItemListResponse{Items: dtos})
			}
			out := cmd.OutOrStdout()
			if len(dtos) == 0 {
				fmt.Fprintln(out, "No items")
				return nil
			}
			rows := make([][]string, 0, len(dtos))
			for _, item := range dtos {
				rows = append(rows, []string{
					item.ID,
					item.Name,
					item.Kind,
					orDash(item.TMDBID),
					formatCommunity(item),
					formatCritic(item),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Kind", "TMDB", "Community", "Critic"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only list movie or show items")
	cmd.Flags().BoolVar(&missing, "missing", false, "Only list items missing a target rating")
	return cmd
}

func newItemsAddCommand(ctx *commandContext) *cobra.Command {
	var (
		id          string
		name        string
		kindFlag    string
		tmdbID      string
		imdbID      string
		collections []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item to the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			store, err := ctx.libraryStore()
			if err != nil {
				return err
			}
			item, err := store.Add(cmd.Context(), library.Item{
				ID:          id,
				Name:        name,
				Kind:        kind,
				TMDBID:      tmdbID,
				IMDBID:      imdbID,
				Collections: parseCollections(collections),
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.FromItem(item))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.Name, item.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Item identifier (generated when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&kindFlag, "kind", "movie", "movie or show")
	cmd.Flags().StringVar(&tmdbID, "tmdb", "", "TMDB id")
	cmd.Flags().StringVar(&imdbID, "imdb", "", "IMDb id")
	cmd.Flags().StringArrayVar(&collections, "collection", nil, "Collection name or id=name (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newItemsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.libraryStore()
			if err != nil {
				return err
			}
			if err := store.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newItemsCollectionsCommand(ctx *commandContext) *cobra.Command {
	var collections []string

	cmd := &cobra.Command{
		Use:   "collections <id>",
		Short: "Replace the collections of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.libraryStore()
			if err != nil {
				return err
			}
			if err := store.SetCollections(cmd.Context(), args[0], parseCollections(collections)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated collections of %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&collections, "collection", nil, "Collection name or id=name (repeatable)")
	return cmd
}

func newItemsUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id>",
		Short: "Refresh the ratings of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updater, store, err := ctx.updater()
			if err != nil {
				return err
			}
			item, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, err := updater.Update(cmd.Context(), item)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, struct {
					Outcome       string          `json:"outcome"`
					PayloadSource string          `json:"payloadSource"`
					Changes       []string        `json:"changes"`
					Item          api.LibraryItem `json:"item"`
				}{res.Outcome.String(), res.PayloadSource, res.Changes, api.FromItem(res.Item)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s (payload: %s)\n", item.Label(), res.Outcome, res.PayloadSource)
			if len(res.Changes) > 0 {
				fmt.Fprintf(out, "Changed: %s\n", strings.Join(res.Changes, ", "))
			}
			dto := api.FromItem(res.Item)
			fmt.Fprintf(out, "Community: %s\nCritic: %s\n", formatCommunity(dto), formatCritic(dto))
			return nil
		},
	}
}
