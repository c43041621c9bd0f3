package cli

import "github.com/spf13/cobra"

// Flags holds the persistent command line flags.
type Flags struct {
	Color   string
	Verbose bool
	JSON    bool
	Backup  bool
}

// Register binds the flags to cmd's persistent flag set.
func (f *Flags) Register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.Color, "color", "auto", "colorize output (auto|on|off)")
	pf.BoolVarP(&f.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&f.JSON, "json", false, "output results in JSON format")
	pf.BoolVar(&f.Backup, "backup", false, "keep .backup copies of rewritten files")
}
