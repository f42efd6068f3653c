package prog

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"src.mdtree.dev/pkg/md"
	"src.mdtree.dev/pkg/md/frontmatter"
	"src.mdtree.dev/pkg/md/wiki"
)

// Config is the content of the file named by -config. Every field provides
// the default for the flag of the same name.
type Config struct {
	Format     string   `yaml:"format"`
	Extensions []string `yaml:"extensions"`
	HeadingIDs bool     `yaml:"ids"`
	Cache      string   `yaml:"cache"`
	Log        string   `yaml:"log"`
	Jobs       int      `yaml:"jobs"`
}

// Names of extensions in the extensions list of a config file.
var extensionFlags = map[string]func(*Flags) *bool{
	"wiki":        func(f *Flags) *bool { return &f.Wiki },
	"frontmatter": func(f *Flags) *bool { return &f.FrontMatter },
}

func applyConfigFile(f *Flags, fs *flag.FlagSet, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	var c Config
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if !set["format"] && c.Format != "" {
		f.Format = c.Format
	}
	for _, name := range c.Extensions {
		p, ok := extensionFlags[name]
		if !ok {
			return fmt.Errorf("%s: unknown extension %q", path, name)
		}
		if !set[name] {
			*p(f) = true
		}
	}
	if !set["ids"] && c.HeadingIDs {
		f.HeadingIDs = true
	}
	if !set["cache"] && c.Cache != "" {
		f.Cache = c.Cache
	}
	if !set["log"] && c.Log != "" {
		f.Log = c.Log
	}
	if !set["j"] && c.Jobs > 0 {
		f.Jobs = c.Jobs
	}
	return nil
}

// Extensions returns the Markdown extensions enabled by the flags.
func (f *Flags) Extensions() []md.Extension {
	var exts []md.Extension
	if f.FrontMatter {
		exts = append(exts, frontmatter.Extension)
	}
	if f.Wiki {
		exts = append(exts, wiki.Extension)
	}
	return exts
}
