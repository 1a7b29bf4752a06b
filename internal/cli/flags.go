package cli

// Flags holds all command-line flag values. One instance is shared by the
// root command and its subcommands; only one subcommand runs per invocation.
type Flags struct {
	// Persistent flags
	CfgFile string
	Verbose bool
	LogFile string

	// Root-level listings
	ListModels    bool
	ListLanguages bool

	// Translation flags
	SourceLang string
	TargetLang string
	Provider   string
	Layout     string
	Format     string
	Model      string
	APIKey     string
	SaveKey    bool
	UseOCR     bool
	NoCache    bool

	// Input/output flags shared by extract, translate and ocr
	Output   string
	MaxPages int
	JSON     bool

	// Extraction flags
	Images bool

	// OCR flags
	Languages string
	DPI       int
	PSM       int
	Boxes     bool

	// Web flags
	Host string
	Port int
}

// NewFlags creates a new Flags instance. Zero values mean "not set": the
// configuration layer fills in anything left empty, so given flags always
// win over config file and environment.
func NewFlags() *Flags {
	return &Flags{}
}
