package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string

	listNames  bool
	showInfo   bool
	extractAll bool

	outputDir  string
	includes   []string
	excludes   []string
	noProgress bool

	provider  string
	region    string
	endpoint  string
	accessKey string
	secretKey string

	decrypt   bool
	password  string
	keyFile   string
	verifyMAC bool
)

// rootCmd is the only command; actions are selected by flags.
var rootCmd = &cobra.Command{
	Use:   "untar [flags] ARCHIVE",
	Short: "Inspect and extract tar archives from local or S3-compatible storage",
	Long: `Untar reads classic and GNU tar archives without loading them whole:
listing, metadata display and extraction work through random access, so a
large archive in object storage is listed with a handful of ranged reads.

Sources:
  - local files
  - AWS S3
  - Qiniu Kodo
  - Aliyun OSS

Features:
  - GNU long pathname (type L) resolution
  - AES-256-CTR + HMAC-SHA512 encrypted containers
  - glob include/exclude filters

At least one action flag is required: --list, --info or --extract.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.untar.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file path (default .untar.env)")

	rootCmd.Flags().BoolVarP(&listNames, "list", "l", false, "list entry names")
	rootCmd.Flags().BoolVarP(&showInfo, "info", "i", false, "show entry metadata")
	rootCmd.Flags().BoolVarP(&extractAll, "extract", "x", false, "extract entries")

	rootCmd.Flags().StringVarP(&outputDir, "output", "C", "", "extraction directory (default .)")
	rootCmd.Flags().StringSliceVar(&includes, "include", []string{}, "include pattern (repeatable)")
	rootCmd.Flags().StringSliceVar(&excludes, "exclude", []string{}, "exclude pattern (repeatable)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.Flags().StringVarP(&provider, "provider", "p", "", "storage provider (aws/qiniu/aliyun)")
	rootCmd.Flags().StringVar(&region, "region", "", "region")
	rootCmd.Flags().StringVar(&endpoint, "endpoint", "", "custom endpoint")
	rootCmd.Flags().StringVar(&accessKey, "access-key", "", "Access Key")
	rootCmd.Flags().StringVar(&secretKey, "secret-key", "", "Secret Key")

	rootCmd.Flags().BoolVarP(&decrypt, "decrypt", "d", false, "treat the archive as an encrypted container")
	rootCmd.Flags().StringVar(&password, "password", "", "decryption password")
	rootCmd.Flags().StringVar(&keyFile, "key-file", "", "key file")
	rootCmd.Flags().BoolVar(&verifyMAC, "verify", false, "verify the container HMAC before reading")
}
