package history

import (
	"regexp"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
	"github.com/m-mizutani/gitflow-release/pkg/domain/model"
)

// git's own revert subject, which is outside the conventional grammar
var gitRevertPattern = regexp.MustCompile(`^Revert\s"(.*)"$`)

// ConventionalCommit is a commit parsed with the conventional-commit header grammar
type ConventionalCommit struct {
	model.Commit
	Type     string
	Scope    string
	Subject  string
	Breaking []string
	Revert   bool
}

// IsBreaking reports whether the commit carries a breaking change
func (c ConventionalCommit) IsBreaking() bool { return len(c.Breaking) > 0 }

// Parse reads the conventional-commit header and breaking-change footers of c.
// Commits that do not follow the grammar keep an empty Type.
func Parse(c model.Commit) ConventionalCommit {
	cc := ConventionalCommit{Commit: c, Subject: c.Subject}

	if m := gitRevertPattern.FindStringSubmatch(c.Subject); m != nil {
		cc.Revert = true
		cc.Type = "revert"
		cc.Subject = m[1]
		return cc
	}

	msg := c.Subject
	if body := strings.TrimSpace(c.Body); body != "" {
		msg += "\n\n" + body
	}

	// best effort keeps a valid header even when the body or footers do not parse
	machine := parser.NewMachine(
		parser.WithTypes(conventionalcommits.TypesConventional),
		parser.WithBestEffort(),
	)
	res, _ := machine.Parse([]byte(msg))
	if res == nil || !res.Ok() {
		return cc
	}
	parsed, ok := res.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return cc
	}

	cc.Type = strings.ToLower(parsed.Type)
	cc.Subject = parsed.Description
	cc.Revert = cc.Type == "revert"
	if parsed.Scope != nil {
		cc.Scope = *parsed.Scope
	}

	for key, values := range parsed.Footers {
		if !isBreakingFooter(key) {
			continue
		}
		for _, v := range values {
			cc.Breaking = append(cc.Breaking, strings.TrimSpace(v))
		}
	}
	if len(cc.Breaking) == 0 && parsed.Exclamation {
		cc.Breaking = append(cc.Breaking, cc.Subject)
	}
	return cc
}

func isBreakingFooter(key string) bool {
	key = strings.ReplaceAll(strings.ToLower(key), " ", "-")
	return key == "breaking-change" || key == "breaking-changes"
}

// recommend applies the angular rule: any breaking change is major, any feature is minor,
// everything else is patch.
func recommend(commits []ConventionalCommit) model.BumpLevel {
	level := model.BumpPatch
	for _, c := range commits {
		if c.IsBreaking() {
			return model.BumpMajor
		}
		if c.Type == "feat" {
			level = model.BumpMinor
		}
	}
	return level
}
