// Command buykart is the entrypoint for the storefront backend.
//
//	buykart serve          run the HTTP server
//	buykart db migrate     apply pending migrations
//	buykart db rollback    revert the last migration batch
//	buykart db seed        load development data
//	buykart routes         list registered routes
package main

import (
	"fmt"
	"os"
	"sort"

	_ "github.com/abhi5hek001/Buykart/database/migrations"
	"github.com/abhi5hek001/Buykart/database/seeders"
	"github.com/abhi5hek001/Buykart/internal/server"
	"github.com/abhi5hek001/Buykart/pkg/database"
	"github.com/abhi5hek001/Buykart/pkg/migration"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "buykart",
		Short:         "Buykart e-commerce backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), dbCmd(), routesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New()
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}

func dbCmd() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Database management",
	}

	db.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				conn, err := database.Connect()
				if err != nil {
					return err
				}
				return migration.New(conn).Up()
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Revert the last migration batch",
			RunE: func(cmd *cobra.Command, args []string) error {
				conn, err := database.Connect()
				if err != nil {
					return err
				}
				return migration.New(conn).Rollback()
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load development data",
			RunE: func(cmd *cobra.Command, args []string) error {
				conn, err := database.Connect()
				if err != nil {
					return err
				}
				return seeders.Run(conn)
			},
		},
	)

	return db
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List registered routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New()
			if err != nil {
				return err
			}

			infos := srv.Router.Routes()
			sort.Slice(infos, func(i, j int) bool {
				if infos[i].Path != infos[j].Path {
					return infos[i].Path < infos[j].Path
				}
				return infos[i].Method < infos[j].Method
			})

			for _, ri := range infos {
				fmt.Printf("%-7s %-30s %s\n", ri.Method, ri.Path, ri.Name)
			}
			return nil
		},
	}
}
