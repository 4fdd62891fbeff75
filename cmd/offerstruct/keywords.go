package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

var (
	keywordsLocale string
	keywordsList   bool
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the active header keyword table",
	Long: `Print the header keyword table as YAML. Without --locale this is the
table named by extract.keyword_file, else the built-in table of
extract.locale. The output is a valid keyword file to start from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keywordsList {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(template.Locales(), "\n"))
			return nil
		}

		var kt *template.KeywordTable
		if cmd.Flags().Changed("locale") {
			t, err := template.BuiltinKeywords(keywordsLocale)
			if err != nil {
				return err
			}
			kt = t
		} else {
			opts, err := cfg.ExtractOptions()
			if err != nil {
				return err
			}
			kt = opts.Keywords
			if kt == nil {
				if kt, err = template.BuiltinKeywords(opts.Locale); err != nil {
					return err
				}
			}
		}
		return printKeywords(cmd.OutOrStdout(), kt)
	},
}

func init() {
	keywordsCmd.Flags().StringVar(&keywordsLocale, "locale", template.DefaultLocale, "built-in table to print")
	keywordsCmd.Flags().BoolVar(&keywordsList, "list", false, "list built-in locales")
	rootCmd.AddCommand(keywordsCmd)
}

func printKeywords(w io.Writer, kt *template.KeywordTable) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(kt); err != nil {
		return err
	}
	return enc.Close()
}
