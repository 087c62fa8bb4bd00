package resources

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// MenuSize is the number of main menu entries every bundle must provide.
const MenuSize = 4

// DefaultLanguage is used when the requested bundle does not exist.
const DefaultLanguage = "fr"

//go:embed text/*.yaml
var bundles embed.FS

// Bundle holds every string shown by the installer.
type Bundle struct {
	WindowTitle string   `yaml:"window_title"`
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	Controls    string   `yaml:"controls"`
	Bottom      string   `yaml:"bottom"`
	Menu        []string `yaml:"menu"`
	Messages    Messages `yaml:"messages"`
}

// Messages are the page texts. Entries holding %s take one argument.
type Messages struct {
	Preparing      string `yaml:"preparing"`
	Downloading    string `yaml:"downloading"`
	Downloaded     string `yaml:"downloaded"`
	Installing     string `yaml:"installing"`
	Installed      string `yaml:"installed"`
	Launching      string `yaml:"launching"`
	Launched       string `yaml:"launched"`
	Removing       string `yaml:"removing"`
	AlreadyRemoved string `yaml:"already_removed"`
	Removed        string `yaml:"removed"`
	Error          string `yaml:"error"`
	FreeSpace      string `yaml:"free_space"`
	ModpackPresent string `yaml:"modpack_present"`
	ModpackAbsent  string `yaml:"modpack_absent"`
}

// Load returns the bundle for lang, falling back to DefaultLanguage when
// no such bundle is embedded.
func Load(lang string) (*Bundle, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = DefaultLanguage
	}

	data, err := bundles.ReadFile("text/" + lang + ".yaml")
	if errors.Is(err, fs.ErrNotExist) && lang != DefaultLanguage {
		data, err = bundles.ReadFile("text/" + DefaultLanguage + ".yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read text bundle %q: %w", lang, err)
	}

	return Parse(data)
}

// Languages lists the embedded bundles.
func Languages() []string {
	entries, err := bundles.ReadDir("text")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return langs
}

// Parse decodes and validates a bundle.
func Parse(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse text bundle: %w", err)
	}

	if len(b.Menu) != MenuSize {
		return nil, fmt.Errorf("text bundle has %d menu entries, want %d", len(b.Menu), MenuSize)
	}
	if b.Title == "" || b.Messages.Error == "" {
		return nil, fmt.Errorf("text bundle is missing its title or error message")
	}
	b.Title = strings.TrimRight(b.Title, "\n")

	return &b, nil
}
