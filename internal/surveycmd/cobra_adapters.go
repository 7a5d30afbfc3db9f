package surveycmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/formbuilder/internal/folder"
	"github.com/lehigh-university-libraries/formbuilder/internal/responses"
	"github.com/spf13/cobra"
)

// NewBuildCmd creates the build command that turns an image folder into survey forms
func NewBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build survey forms from a folder of images",
		Long: `Build enumerates the images in select_images/small_mammals below a shared
folder, shuffles them, writes a manifest of image names and IDs to the forms
subfolder, and creates as many forms as needed to ask one multiple choice
question per image.

Every form starts with a required name field. Questions are numbered across
all forms and a page break follows every questions-per-page questions.

On the google backend each image is attached by its Drive download link, which
the Forms service fetches itself. The images must therefore be shared so that
anyone with the link can view them; private files fail to attach and abort the
build.

A run report is written to --report-dir even when the build aborts, listing
every form and question created so far.`,
		Example: `  # Build forms from a shared Drive folder
  formbuilder build --folder-url "https://drive.google.com/drive/folders/1AbC?usp=sharing"

  # Smaller forms with a reproducible order
  formbuilder build --per-form 50 --per-page 10 --seed 42

  # Build offline against a directory tree
  formbuilder build --backend local --local-root ./survey --local-forms ./forms-out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is loaded after flags are defined, so environment defaults are read here
			opts.Backend.FolderURL = withEnv(opts.Backend.FolderURL, "FOLDER_URL")
			opts.Backend.Credentials = withEnv(opts.Backend.Credentials, "GOOGLE_CREDENTIALS_FILE")
			if opts.Backend.Name == backendGoogle && opts.Backend.FolderURL == "" {
				return fmt.Errorf("--folder-url is required (or set FOLDER_URL)")
			}

			run, path, err := executeBuild(cmd.Context(), opts)
			if run != nil && path != "" {
				printBuildSummary(cmd.OutOrStdout(), run, path)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Backend.FolderURL, "folder-url", "", "Sharing URL of the folder holding select_images (env FOLDER_URL)")
	cmd.Flags().StringVar(&opts.Backend.Name, "backend", backendGoogle, "Provider backend (google or local)")
	cmd.Flags().StringVar(&opts.Backend.Credentials, "credentials", "", "Service account JSON file (env GOOGLE_CREDENTIALS_FILE, default application credentials)")
	cmd.Flags().StringVar(&opts.Backend.LocalRoot, "local-root", "", "Root directory for the local backend")
	cmd.Flags().StringVar(&opts.Backend.LocalForms, "local-forms", "", "Output directory for local forms (default <local-root>/_forms)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Survey YAML file overriding the default survey")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", 0, "Questions per page (overrides the survey file)")
	cmd.Flags().IntVar(&opts.PerForm, "per-form", 0, "Questions per form (overrides the survey file)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "Shuffle seed (0 picks one at random)")
	cmd.Flags().StringVar(&opts.ReportDir, "report-dir", "runs", "Directory for run reports")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")

	return cmd
}

// NewResolveCmd creates the resolve command that prints a folder ID from a sharing URL
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve <folder-url>",
		Short:   "Print the folder ID contained in a sharing URL",
		Example: `  formbuilder resolve "https://drive.google.com/drive/folders/1AbC?usp=sharing"`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := withEnv("", "FOLDER_URL")
			if len(args) == 1 {
				url = args[0]
			}
			id, err := folder.MustExtractID(url)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", url, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	return cmd
}

// NewCollectCmd creates the collect command that exports responses for a run
func NewCollectCmd() *cobra.Command {
	var opts collectOptions

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Export form responses correlated with their images",
		Long: `Collect reads a run report written by build, lists the responses to each
of its forms, and writes one row per answered image question with the
respondent's name, the image name and ID, and the chosen answer.`,
		Example: `  # Export responses as CSV
  formbuilder collect --report runs/2f1c.yaml

  # Export as parquet for analysis
  formbuilder collect --report runs/2f1c.yaml --format parquet --output answers.parquet

  # Print per-image answer counts
  formbuilder collect --report runs/2f1c.yaml --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Credentials = withEnv(opts.Credentials, "GOOGLE_CREDENTIALS_FILE")
			n, err := executeCollect(cmd.Context(), cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collected %d answers\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "Run report written by build (required)")
	cmd.Flags().StringVar(&opts.Format, "format", responses.FormatCSV, "Output format (csv, parquet, or xlsx)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output file (default <run id>_responses.<format>)")
	cmd.Flags().StringVar(&opts.Credentials, "credentials", "", "Service account JSON file (env GOOGLE_CREDENTIALS_FILE, default application credentials)")
	cmd.Flags().StringVar(&opts.LocalForms, "local-forms", "", "Forms directory of a local run (default: the directory recorded in the report)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "Print a per-image summary of the answers")

	_ = cmd.MarkFlagRequired("report")
	return cmd
}

func withEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}
