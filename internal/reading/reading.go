// Package reading turns measured palm line features into a palmistry
// report, either through a chat model or a rule table when no model is
// configured.
package reading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"palm-reader/internal/features"
	"palm-reader/internal/pipeline"
	"palm-reader/pkg/llm"
)

// LineReading is the interpretation of a single palm line.
type LineReading struct {
	Feature string `json:"feature"`
	Reading string `json:"reading"`
}

// Report maps each palm line to its interpretation.
type Report map[pipeline.Category]LineReading

// Source names which backend produced a report.
type Source string

const (
	SourceModel Source = "model"
	SourceRules Source = "rules"
)

const systemPrompt = "You are a helpful assistant that outputs JSON only."

const promptTemplate = `You are a master palm reader versed in traditional Chinese palmistry. Based on the palm line measurements below, write a detailed character and fortune reading.

[Measurements]
Life line: %s (length index > 0.6 reads long, arc index > 0.3 reads full)
Head line: %s (length index > 0.5 reads long, absolute slope > 0.5 reads drooping)
Heart line: %s (length index > 0.6 reads long, complexity > 10 reads intricate)

[Output]
1. Tone: professional, mystical, philosophical and upbeat.
2. Return strictly valid JSON with no Markdown fences.
3. Use this JSON structure:
{"life": {"feature": "short label", "reading": "detailed reading"}, "head": {"feature": "...", "reading": "..."}, "heart": {"feature": "...", "reading": "..."}}`

// Analyzer produces palm readings. A nil chat client limits it to the
// rule table.
type Analyzer struct {
	chat llm.IChatClient
	log  *logrus.Logger
}

// NewAnalyzer creates an analyzer backed by the given chat client,
// which may be nil.
func NewAnalyzer(chat llm.IChatClient, logger *logrus.Logger) *Analyzer {
	return &Analyzer{chat: chat, log: logger}
}

// Analyze interprets the features, preferring the chat model and
// falling back to the rule table when the model is unavailable or
// returns something unusable. The returned source tells which backend
// actually produced the report.
func (a *Analyzer) Analyze(ctx context.Context, feats map[pipeline.Category]features.LineFeatures) (Report, Source) {
	if a.chat != nil {
		report, err := a.analyzeWithModel(ctx, feats)
		if err == nil {
			return report, SourceModel
		}
		if a.log != nil {
			a.log.WithField("error", err.Error()).Warn("Model reading failed, falling back to rules")
		}
	}
	return RuleBased(feats), SourceRules
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, feats map[pipeline.Category]features.LineFeatures) (Report, error) {
	prompt := fmt.Sprintf(promptTemplate,
		feats[pipeline.Life].Desc,
		feats[pipeline.Head].Desc,
		feats[pipeline.Heart].Desc,
	)

	content, err := a.chat.CreateJSONCompletion(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseReport(content)
}

// parseReport extracts the JSON object from the model output. Models
// occasionally wrap the payload in fences or prose despite the
// instructions, so everything outside the outermost braces is dropped.
func parseReport(content string) (Report, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var raw map[string]LineReading
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	report := Report{}
	for name, lr := range raw {
		cat, err := pipeline.ParseCategory(name)
		if err != nil {
			continue
		}
		report[cat] = lr
	}
	for _, cat := range pipeline.Categories() {
		if _, ok := report[cat]; !ok {
			return nil, fmt.Errorf("model output missing %s line", cat)
		}
	}
	return report, nil
}

// RuleBased interprets the features with a fixed rule table.
func RuleBased(feats map[pipeline.Category]features.LineFeatures) Report {
	report := Report{}

	life := feats[pipeline.Life]
	if life.Detected {
		var featList, readList []string
		if life.NormLength > 0.6 {
			featList = append(featList, "deep and long")
			readList = append(readList, "Abundant energy, strong vitality and good resilience.")
		} else {
			featList = append(featList, "on the short side")
			readList = append(readList, "Balance work and rest, and avoid running yourself down.")
		}
		if life.Curvature > 0.3 {
			featList = append(featList, "full sweeping arc")
			readList = append(readList, "Open and warm-hearted, with strong social instincts and a life full of energy.")
		} else {
			featList = append(featList, "flat arc")
			readList = append(readList, "Reserved and calm, careful in action, fond of a steady life.")
		}
		report[pipeline.Life] = LineReading{
			Feature: strings.Join(featList, ", "),
			Reading: strings.Join(readList, " "),
		}
	} else {
		report[pipeline.Life] = LineReading{Feature: "not detected", Reading: "no data"}
	}

	head := feats[pipeline.Head]
	if head.Detected {
		var featList, readList []string
		if head.NormLength > 0.5 {
			featList = append(featList, "long and refined")
			readList = append(readList, "Clear thinking and strong logic, given to deep analysis.")
		} else {
			featList = append(featList, "short and effective")
			readList = append(readList, "Quick reactions, sharp intuition, decisive.")
		}
		if head.Slope > -0.5 && head.Slope < 0.5 {
			featList = append(featList, "runs straight across")
			readList = append(readList, "Practical and rational, good with money, suited to analytical work.")
		} else {
			featList = append(featList, "dips toward the end")
			readList = append(readList, "Rich imagination, creative and artistic, led by feeling.")
		}
		report[pipeline.Head] = LineReading{
			Feature: strings.Join(featList, ", "),
			Reading: strings.Join(readList, " "),
		}
	} else {
		report[pipeline.Head] = LineReading{Feature: "not detected", Reading: "no data"}
	}

	heart := feats[pipeline.Heart]
	if heart.Detected {
		var featList, readList []string
		if heart.NormLength > 0.6 {
			featList = append(featList, "reaches the finger roots")
			readList = append(readList, "Deep and devoted in feeling, loyal and wholehearted in love.")
		} else {
			featList = append(featList, "stops midway")
			readList = append(readList, "Level-headed about feelings, dislikes loose ends, self-protective.")
		}
		if heart.Complexity > 10 {
			featList = append(featList, "branching and busy")
			readList = append(readList, "Plenty of romantic chances, though the road may wind.")
		} else {
			featList = append(featList, "clean and clear")
			readList = append(readList, "A simple, sincere emotional life in search of a true match.")
		}
		report[pipeline.Heart] = LineReading{
			Feature: strings.Join(featList, ", "),
			Reading: strings.Join(readList, " "),
		}
	} else {
		report[pipeline.Heart] = LineReading{Feature: "not detected", Reading: "no data"}
	}

	return report
}
