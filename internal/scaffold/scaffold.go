// Package scaffold generates new bot projects and plugins from embedded
// templates.
package scaffold

import (
	"bufio"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/hata-go/hata/pkg/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName is returned for names that are not Go identifiers or are keywords.
	ErrInvalidName = errors.New("scaffold: invalid name")

	// ErrTargetExists is returned when the target exists and force is not set.
	ErrTargetExists = errors.New("scaffold: target already exists")

	// ErrDuplicateBot is returned when a bot name is given twice.
	ErrDuplicateBot = errors.New("scaffold: duplicate bot name")

	// ErrNotAProject is returned when a plugin target has no go.mod.
	ErrNotAProject = errors.New("scaffold: directory is not a project")
)

// DefaultBot is the bot generated when no bot name is given.
const DefaultBot = "main"

const (
	// reservedBot is taken by bots/bot.go, which holds the shared Bot type.
	reservedBot = "bot"
	// builtinPlugin is written into every new project.
	builtinPlugin = "ping"
)

// writeConcurrency bounds parallel file writes.
const writeConcurrency = 4

// ValidateName checks that name can be used as a Go identifier.
func ValidateName(name string) error {
	if token.IsKeyword(name) {
		return fmt.Errorf("%w: %q is a Go keyword", ErrInvalidName, name)
	}
	if !token.IsIdentifier(name) {
		return fmt.Errorf("%w: %q is not a valid identifier", ErrInvalidName, name)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE DATA
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the template view of one bot.
type Bot struct {
	Name   string
	Ident  string
	EnvVar string
}

func newBot(name string) Bot {
	return Bot{
		Name:   name,
		Ident:  exportedIdent(name),
		EnvVar: strings.ToUpper(name) + "_TOKEN",
	}
}

// Project is the template view of a project.
type Project struct {
	Name   string
	Module string
	Bots   []Bot
}

// Plugin is the template view of a plugin.
type Plugin struct {
	Name   string
	Ident  string
	Module string
}

// exportedIdent turns snake_case into CamelCase.
func exportedIdent(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// FILES
// ══════════════════════════════════════════════════════════════════════════════

// File is one generated file, relative to the target root.
type File struct {
	Path     string
	Template string
	Data     any
}

// Result describes what was generated.
type Result struct {
	Root  string
	Files []string
}

func render(f File) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, f.Template, f.Data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", f.Path, err)
	}
	return buf.Bytes(), nil
}

// writeFiles renders and writes files under root concurrently.
func writeFiles(ctx context.Context, root string, files []File, log *logger.Logger) error {
	dirs := map[string]struct{}{}
	for _, f := range files {
		dirs[filepath.Dir(filepath.Join(root, f.Path))] = struct{}{}
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(writeConcurrency)
	for _, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := render(f)
			if err != nil {
				return err
			}
			path := filepath.Join(root, f.Path)
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			log.Debug("file written", logger.String("path", path))
			return nil
		})
	}
	return g.Wait()
}

func paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = filepath.ToSlash(f.Path)
	}
	slices.Sort(out)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// PROJECT
// ══════════════════════════════════════════════════════════════════════════════

// ProjectOptions configures NewProject.
type ProjectOptions struct {
	// Name is the project name and directory name.
	Name string

	// Bots lists bot names. Empty generates DefaultBot.
	Bots []string

	// Dir is the parent directory. Empty means the working directory.
	Dir string

	// Module is the Go module path. Empty uses Name.
	Module string

	// Force allows generating into an existing directory.
	Force bool

	Logger *logger.Logger
}

// ProjectFiles returns the files of a project without writing anything.
func ProjectFiles(opts ProjectOptions) (Project, []File, error) {
	if err := ValidateName(opts.Name); err != nil {
		return Project{}, nil, err
	}

	names := opts.Bots
	if len(names) == 0 {
		names = []string{DefaultBot}
	}

	project := Project{Name: opts.Name, Module: opts.Module}
	if project.Module == "" {
		project.Module = opts.Name
	}

	// Generated identifiers and env vars must be unique too: a_b and aB both
	// become NewAB, ab and AB both read AB_TOKEN.
	idents := make(map[string]string, len(names))
	envVars := make(map[string]string, len(names))
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return Project{}, nil, fmt.Errorf("bot: %w", err)
		}
		bot := newBot(name)
		if bot.Ident == exportedIdent(reservedBot) {
			return Project{}, nil, fmt.Errorf("%w: bot name %q is reserved", ErrInvalidName, name)
		}
		if other, ok := idents[bot.Ident]; ok {
			return Project{}, nil, fmt.Errorf("%w: %q and %q both generate New%s", ErrDuplicateBot, other, name, bot.Ident)
		}
		if other, ok := envVars[bot.EnvVar]; ok {
			return Project{}, nil, fmt.Errorf("%w: %q and %q both read %s", ErrDuplicateBot, other, name, bot.EnvVar)
		}
		idents[bot.Ident] = name
		envVars[bot.EnvVar] = name
		project.Bots = append(project.Bots, bot)
	}

	files := []File{
		{Path: "go.mod", Template: "go.mod.tmpl", Data: project},
		{Path: "main.go", Template: "main.go.tmpl", Data: project},
		{Path: filepath.Join("bots", "bot.go"), Template: "bot_base.go.tmpl", Data: project},
		{Path: filepath.Join("plugins", "ping.go"), Template: "ping.go.tmpl", Data: project},
		{Path: ".env.example", Template: "env.example.tmpl", Data: project},
		{Path: ".gitignore", Template: "gitignore.tmpl", Data: project},
		{Path: "README.md", Template: "README.md.tmpl", Data: project},
	}
	for _, bot := range project.Bots {
		files = append(files, File{Path: filepath.Join("bots", bot.Name+".go"), Template: "bot.go.tmpl", Data: bot})
	}
	return project, files, nil
}

// NewProject generates a project in Dir/Name.
func NewProject(ctx context.Context, opts ProjectOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	_, files, err := ProjectFiles(opts)
	if err != nil {
		return nil, err
	}

	root := filepath.Join(opts.Dir, opts.Name)
	if _, err := os.Stat(root); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s", ErrTargetExists, root)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if err := writeFiles(ctx, root, files, log); err != nil {
		return nil, err
	}

	log.Info("project created",
		logger.String("root", root),
		logger.Int("files", len(files)),
	)
	return &Result{Root: root, Files: paths(files)}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PLUGIN
// ══════════════════════════════════════════════════════════════════════════════

// PluginOptions configures NewPlugin.
type PluginOptions struct {
	// Name is the plugin and command name.
	Name string

	// Dir is the project root. Empty means the working directory.
	Dir string

	// Force allows overwriting an existing plugin file.
	Force bool

	Logger *logger.Logger
}

// NewPlugin adds plugins/<name>.go to the project in Dir.
func NewPlugin(ctx context.Context, opts PluginOptions) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}
	ident := exportedIdent(opts.Name)
	if ident == exportedIdent(builtinPlugin) {
		return nil, fmt.Errorf("%w: %s is generated with every project", ErrTargetExists, builtinPlugin)
	}

	root := opts.Dir
	if root == "" {
		root = "."
	}
	module, err := readModule(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, err
	}

	if other, ok := pluginWithIdent(filepath.Join(root, "plugins"), ident, opts.Name); ok {
		return nil, fmt.Errorf("%w: plugin %q already generates setup%s", ErrTargetExists, other, ident)
	}

	file := File{
		Path:     filepath.Join("plugins", opts.Name+".go"),
		Template: "plugin.go.tmpl",
		Data:     Plugin{Name: opts.Name, Ident: ident, Module: module},
	}
	target := filepath.Join(root, file.Path)
	if _, err := os.Stat(target); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s", ErrTargetExists, target)
	}

	if err := writeFiles(ctx, root, []File{file}, log); err != nil {
		return nil, err
	}

	log.Info("plugin created", logger.String("path", target))
	return &Result{Root: root, Files: paths([]File{file})}, nil
}

// pluginWithIdent returns another plugin in dir whose setup function would
// be named like ident. The plugin called self is ignored.
func pluginWithIdent(dir, ident, self string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".go")
		if !ok || entry.IsDir() || name == self || strings.HasSuffix(name, "_test") {
			continue
		}
		if exportedIdent(name) == ident {
			return name, true
		}
	}
	return "", false
}

// readModule returns the module path declared in a go.mod file.
func readModule(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", ErrNotAProject, path)
		}
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module"); ok && rest != "" && (rest[0] == ' ' || rest[0] == '\t') {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return "", fmt.Errorf("%w: %s has no module line", ErrNotAProject, path)
}
