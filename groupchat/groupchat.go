package groupchat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/util"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/model"
)

const (
	// DefaultAdminName is the participant that speaks when speaker selection fails.
	DefaultAdminName = "Admin"
	// DefaultMaxRound bounds the rounds of one run.
	DefaultMaxRound = 10

	// DefaultSelectSpeakerTemplate opens the speaker selection request.
	DefaultSelectSpeakerTemplate = `You are in a role play game. The following roles are available:
{{.Roles}}

Read the following conversation.
Then select the next role from [{{join ", " .Names}}] to play. Only return the role.`

	// DefaultSelectSpeakerInstruction closes the speaker selection request.
	DefaultSelectSpeakerInstruction = `Read the above conversation. Then select the next role from [{{join ", " .Names}}] to play. Only return the role.`
)

// PromptData is what the selection templates are rendered against.
type PromptData struct {
	// Roles holds one "name: system message" line per candidate.
	Roles string
	Names []string
}

// Options configures a GroupChat.
type Options struct {
	AdminName          string
	MaxRound           int
	AllowRepeatSpeaker bool
	// SelectSpeakerTemplate and SelectSpeakerInstruction are text/template
	// sources rendered with PromptData.
	SelectSpeakerTemplate    string
	SelectSpeakerInstruction string
	Logger                   logging.Logger
}

// GroupChat is the roster and transcript of a multi agent conversation. The
// roster is fixed after construction; the transcript only grows until Reset.
type GroupChat struct {
	adminName          string
	agents             []core.Agent
	maxRound           int
	allowRepeatSpeaker bool
	promptTemplate     string
	instruction        string
	logger             logging.Logger

	mu       sync.RWMutex
	messages []core.Message
}

// NewGroupChat creates a group chat over agents. Agent names must be unique.
func NewGroupChat(agents []core.Agent, optFns ...func(o *Options)) (*GroupChat, error) {
	opts := Options{
		AdminName:                DefaultAdminName,
		MaxRound:                 DefaultMaxRound,
		AllowRepeatSpeaker:       true,
		SelectSpeakerTemplate:    DefaultSelectSpeakerTemplate,
		SelectSpeakerInstruction: DefaultSelectSpeakerInstruction,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxRound < 0 {
		return nil, core.InvalidArgument("max round must not be negative, got %d", opts.MaxRound)
	}

	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if a == nil {
			return nil, core.InvalidArgument("group chat agent is nil")
		}
		if _, dup := seen[a.Name()]; dup {
			return nil, core.InvalidArgument("duplicate agent name %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}

	probe := PromptData{Roles: "a: b", Names: []string{"a"}}
	for _, tmpl := range []string{opts.SelectSpeakerTemplate, opts.SelectSpeakerInstruction} {
		if _, err := util.RenderTemplate(tmpl, probe); err != nil {
			return nil, core.InvalidArgument("speaker selection template: %v", err)
		}
	}

	return &GroupChat{
		adminName:          opts.AdminName,
		agents:             append([]core.Agent(nil), agents...),
		maxRound:           opts.MaxRound,
		allowRepeatSpeaker: opts.AllowRepeatSpeaker,
		promptTemplate:     opts.SelectSpeakerTemplate,
		instruction:        opts.SelectSpeakerInstruction,
		logger:             logging.OrNoOp(opts.Logger),
	}, nil
}

// Agents returns the roster in order.
func (g *GroupChat) Agents() []core.Agent { return append([]core.Agent(nil), g.agents...) }

// AgentNames returns the roster names in order.
func (g *GroupChat) AgentNames() []string { return names(g.agents) }

// AdminName returns the name of the fallback speaker.
func (g *GroupChat) AdminName() string { return g.adminName }

// MaxRound returns the round limit of a run.
func (g *GroupChat) MaxRound() int { return g.maxRound }

// AllowRepeatSpeaker reports whether a speaker may speak twice in a row.
func (g *GroupChat) AllowRepeatSpeaker() bool { return g.allowRepeatSpeaker }

// AgentByName returns the roster member called name.
func (g *GroupChat) AgentByName(name string) (core.Agent, error) {
	for _, a := range g.agents {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, core.InvalidArgument("no agent named %q in the group chat", name)
}

// Messages returns a copy of the transcript.
func (g *GroupChat) Messages() []core.Message {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return core.CloneMessages(g.messages)
}

// Append adds msg to the transcript.
func (g *GroupChat) Append(msg core.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages = append(g.messages, msg.Clone())
}

// Reset clears the transcript.
func (g *GroupChat) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages = nil
}

// SelectSpeakerPrompt describes the candidates, one "name: system message"
// line each, and asks for the next role.
func (g *GroupChat) SelectSpeakerPrompt(candidates []core.Agent) (string, error) {
	return util.RenderTemplate(g.promptTemplate, g.promptData(candidates))
}

func (g *GroupChat) promptData(candidates []core.Agent) PromptData {
	roles := make([]string, 0, len(candidates))
	for _, a := range candidates {
		if a.SystemMessage() == "" {
			g.logger.Warn("groupchat.empty_system_message", "agent", a.Name())
		}
		roles = append(roles, a.Name()+": "+a.SystemMessage())
	}

	return PromptData{Roles: strings.Join(roles, "\n"), Names: names(candidates)}
}

// SelectSpeaker asks m for the next speaker given the transcript. The last
// speaker is excluded from the candidates unless repeats are allowed.
func (g *GroupChat) SelectSpeaker(ctx context.Context, last core.Agent, m model.Model) (core.Agent, error) {
	if len(g.agents) < 2 {
		return nil, core.InvalidArgument("group chat is underpopulated with %d agents, add more agents or use direct communication instead", len(g.agents))
	}
	if m == nil {
		return nil, core.InvalidArgument("speaker selection needs a model")
	}

	candidates := g.candidates(last)

	prompt, err := g.SelectSpeakerPrompt(candidates)
	if err != nil {
		return nil, fmt.Errorf("speaker selection: %w", err)
	}
	instruction, err := util.RenderTemplate(g.instruction, PromptData{Names: names(candidates)})
	if err != nil {
		return nil, fmt.Errorf("speaker selection: %w", err)
	}

	msgs := []core.Message{core.NewSystemMessage(prompt)}
	msgs = append(msgs, g.Messages()...)
	msgs = append(msgs, core.NewSystemMessage(instruction))

	resp, err := model.Complete(ctx, m, model.Request{Messages: msgs})
	if err != nil {
		return nil, fmt.Errorf("speaker selection: %w", err)
	}

	choice, ok := resp.First()
	if !ok {
		return nil, fmt.Errorf("speaker selection: %w", model.ErrNoResponse)
	}

	mentions := MentionedAgents(choice.Content, candidates)
	if len(mentions) != 1 {
		mentioned := make([]string, 0, len(mentions))
		for name := range mentions {
			mentioned = append(mentioned, name)
		}
		sort.Strings(mentioned)

		return nil, &core.AmbiguousSpeakerError{
			Response:   choice.Content,
			Candidates: names(candidates),
			Mentions:   mentioned,
		}
	}

	var selected string
	for name := range mentions {
		selected = name
	}

	g.logger.Debug("groupchat.speaker.selected", "speaker", selected)

	return g.AgentByName(selected)
}

func (g *GroupChat) candidates(last core.Agent) []core.Agent {
	if g.allowRepeatSpeaker || last == nil {
		return g.Agents()
	}

	out := make([]core.Agent, 0, len(g.agents))
	for _, a := range g.agents {
		if a.Name() != last.Name() {
			out = append(out, a)
		}
	}

	return out
}

// MentionedAgents counts whole word mentions of each agent name in content.
// Agents that are not mentioned are absent from the result.
func MentionedAgents(content string, agents []core.Agent) map[string]int {
	mentions := make(map[string]int)
	for _, a := range agents {
		if n := countMentions(content, a.Name()); n > 0 {
			mentions[a.Name()] = n
		}
	}
	return mentions
}

// countMentions counts occurrences of name in content that are surrounded by
// non word characters. The content is padded with spaces so that names at
// either end count.
func countMentions(content, name string) int {
	if name == "" {
		return 0
	}

	padded := " " + content + " "
	count := 0

	for i := 0; i < len(padded); {
		j := strings.Index(padded[i:], name)
		if j < 0 {
			break
		}

		start := i + j
		end := start + len(name)

		if start > 0 && end < len(padded) && !isWordByte(padded[start-1]) && !isWordByte(padded[end]) {
			count++
			i = end
		} else {
			i = start + 1
		}
	}

	return count
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func names(agents []core.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.Name()
	}
	return out
}
