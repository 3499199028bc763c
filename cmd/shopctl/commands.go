package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/example/plant-shop/internal/client/mirror"
	"github.com/example/plant-shop/internal/model"
	"github.com/spf13/cobra"
)

func (a *app) plantsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "plants", Short: "Browse the catalog"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every plant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plants, err := a.api.ListPlants(cmd.Context())
			if err != nil {
				return err
			}
			a.printPlants(plants)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "search <term>",
		Short: "Search by common or scientific name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plants, err := a.api.SearchPlants(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printPlants(plants)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api.GetPlant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printPlants([]model.Plant{*p})
			return nil
		},
	})
	return cmd
}

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Inspect and change the cart"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show cart lines and subtotal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := mirror.NewCartView(a.deps())
			if err := view.Refresh(cmd.Context()); err != nil {
				return err
			}
			a.printCart(view)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <productId> <count>",
		Short: "Set the quantity of one product (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("count must be a whole number: %w", err)
			}
			ctx := cmd.Context()
			stepper := mirror.NewStepper(a.deps(), args[0], a.plantName(ctx, args[0]))
			if err := stepper.Load(ctx); err != nil {
				return err
			}
			if err := stepper.SetQuantity(ctx, n); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %d\n", args[0], stepper.Quantity())
			return nil
		},
	})

	lineCmd := func(use, short string, run func(*mirror.CartView, *cobra.Command, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <productId>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				view := mirror.NewCartView(a.deps())
				if err := view.Refresh(cmd.Context()); err != nil {
					return err
				}
				if err := run(view, cmd, args[0]); err != nil {
					return err
				}
				a.printCart(view)
				return nil
			},
		}
	}
	cmd.AddCommand(
		lineCmd("inc", "Add one to a cart line", func(v *mirror.CartView, cmd *cobra.Command, pid string) error {
			return v.Increase(cmd.Context(), pid)
		}),
		lineCmd("dec", "Take one from a cart line", func(v *mirror.CartView, cmd *cobra.Command, pid string) error {
			return v.Decrease(cmd.Context(), pid)
		}),
		lineCmd("rm", "Remove a cart line", func(v *mirror.CartView, cmd *cobra.Command, pid string) error {
			return v.Remove(cmd.Context(), pid)
		}),
	)
	return cmd
}

func (a *app) favCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "fav", Short: "Manage favorites"}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <productId>",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			heart := mirror.NewFavoriteToggle(a.deps(), args[0])
			if err := heart.Load(cmd.Context()); err != nil {
				return err
			}
			if err := heart.Toggle(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s favorite: %t\n", args[0], heart.IsFavorite())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <productId>",
		Short: "Report whether a product is a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			heart := mirror.NewFavoriteToggle(a.deps(), args[0])
			if err := heart.Load(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, heart.IsFavorite())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite plants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := mirror.NewFavoritesView(a.deps())
			if err := view.Refresh(cmd.Context()); err != nil {
				return err
			}
			a.printPlants(view.Plants())
			return nil
		},
	})
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and print the token and user ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.api.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "PLANTSHOP_USER=%s\nPLANTSHOP_TOKEN=%s\n", res.UserID, res.Token)
			return nil
		},
	}
}

func (a *app) printPlants(plants []model.Plant) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCIENTIFIC NAME\tPRICE")
	for _, p := range plants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", p.ID, p.CommonName, p.ScientificName, p.Price)
	}
	tw.Flush()
}

func (a *app) printCart(view *mirror.CartView) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE")
	for _, l := range view.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", l.ProductID, l.CommonName, l.Quantity, l.Price)
	}
	fmt.Fprintf(tw, "\t\tSUBTOTAL\t%.2f\n", view.Subtotal())
	tw.Flush()
}
