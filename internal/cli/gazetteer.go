package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"carematch/internal/gazetteer"
)

func newGazetteerCmd(load ConfigLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazetteer",
		Short: "Manage the postcode locality gazetteer",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <localities.csv>",
		Short: "Upsert localities (name,region,postcode) into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open gazetteer file: %w", err)
			}
			defer f.Close()
			localities, err := gazetteer.ReadCSV(f)
			if err != nil {
				return err
			}
			if len(localities) == 0 {
				return fmt.Errorf("%s has no localities", args[0])
			}

			db, err := openDB(cmd.Context(), load, true)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := gazetteer.NewPostgres(db).Import(cmd.Context(), localities)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d localities\n", n)
			return nil
		},
	})
	return cmd
}
