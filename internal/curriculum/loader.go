// Package curriculum loads the geography topic set and its static question
// banks from a directory tree of YAML files.
package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/dia-canvas/internal/progress"
)

const (
	questionsSuffix = ".questions.yaml"
	notesSuffix     = ".teaching.md"
)

// Loader loads and caches curriculum content from the filesystem.
type Loader struct {
	rootDir       string
	topics        map[int]progress.TopicContent
	banks         map[int][]BankQuestion
	teachingNotes map[int]string
	mu            sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir:       rootDir,
		topics:        make(map[int]progress.TopicContent),
		banks:         make(map[int][]BankQuestion),
		teachingNotes: make(map[int]string),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}

	slog.Info("curriculum loaded", "topics", len(l.topics), "banks", len(l.banks))
	return l, nil
}

// GetTopic returns a topic by ID.
func (l *Loader) GetTopic(id int) (progress.TopicContent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.topics[id]
	return t, ok
}

// GetTeachingNotes returns teaching notes for a topic ID.
func (l *Loader) GetTeachingNotes(id int) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n, ok := l.teachingNotes[id]
	return n, ok
}

// AllTopics returns all loaded topics ordered by ID.
func (l *Loader) AllTopics() []progress.TopicContent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	topics := make([]progress.TopicContent, 0, len(l.topics))
	for _, t := range l.topics {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].TopicID < topics[j].TopicID })
	return topics
}

// QuestionBank returns a copy of the static questions for a topic.
func (l *Loader) QuestionBank(id int) []BankQuestion {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]BankQuestion(nil), l.banks[id]...)
}

func (l *Loader) loadAll() error {
	if _, err := os.Stat(l.rootDir); err != nil {
		return err
	}
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		switch {
		case strings.HasSuffix(path, notesSuffix):
			return l.loadTeachingNotes(path)
		case strings.HasSuffix(path, questionsSuffix):
			return l.loadBank(path)
		case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
			return l.loadTopic(path)
		}
		return nil
	})
}

func (l *Loader) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var topic progress.TopicContent
	if err := yaml.Unmarshal(data, &topic); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}

	if topic.TopicID <= 0 {
		return nil // Not a topic file
	}
	if topic.Scale <= 0 {
		topic.Scale = 1
	}
	if topic.ShortLabel == "" {
		topic.ShortLabel = topic.KeywordLabel
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.topics[topic.TopicID]; dup {
		slog.Warn("duplicate topic id, keeping first", "topic_id", topic.TopicID, "path", path)
		return nil
	}
	l.topics[topic.TopicID] = topic
	return nil
}

func (l *Loader) loadBank(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		slog.Warn("skipping invalid question bank", "path", path, "error", err)
		return nil
	}
	if bank.TopicID <= 0 || len(bank.Questions) == 0 {
		return nil
	}

	l.mu.Lock()
	l.banks[bank.TopicID] = append(l.banks[bank.TopicID], bank.Questions...)
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadTeachingNotes(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Derive topic ID from matching YAML file
	yamlPath := strings.TrimSuffix(path, notesSuffix) + ".yaml"
	yamlData, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil // No matching YAML, skip
	}

	var partial struct {
		TopicID int `yaml:"topic_id"`
	}
	if err := yaml.Unmarshal(yamlData, &partial); err != nil || partial.TopicID <= 0 {
		return nil
	}

	l.mu.Lock()
	l.teachingNotes[partial.TopicID] = string(data)
	l.mu.Unlock()

	return nil
}
