package biz

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/lk2023060901/app-idea-analyzer/internal/llm"
	"github.com/lk2023060901/app-idea-analyzer/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo 内存实现，语义与两个持久化实现一致
type memoryRepo struct {
	mu    sync.Mutex
	ideas map[string]*Idea
	err   error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{ideas: make(map[string]*Idea)}
}

func (r *memoryRepo) Upsert(_ context.Context, idea *Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if existing, ok := r.ideas[idea.AppName]; ok {
		existing.Searches++
		return nil
	}
	stored := *idea
	stored.Searches = 1
	r.ideas[idea.AppName] = &stored
	return nil
}

func (r *memoryRepo) ListTop(_ context.Context, n int) ([]*Idea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Idea, 0, len(r.ideas))
	for _, idea := range r.ideas {
		out = append(out, idea)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Searches > out[j].Searches })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

type stubGenerator struct {
	details map[string]*IdeaDetails
	err     error
	calls   int
}

func (g *stubGenerator) Generate(_ context.Context, userInput string) (*IdeaDetails, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.details[userInput], nil
}

func TestRecordIdea(t *testing.T) {
	repo := newMemoryRepo()
	gen := &stubGenerator{details: map[string]*IdeaDetails{
		"share recipes with friends": {AppName: "Recipe Share", Description: "first", Category: CategorySocial},
		"recipes but social":         {AppName: "Recipe Share", Description: "second", Category: CategoryOther},
	}}
	uc := NewIdeaUseCase(repo, gen, logger.NewNop())

	details, err := uc.RecordIdea(context.Background(), "  share recipes with friends ")
	require.NoError(t, err)
	assert.Equal(t, "Recipe Share", details.AppName)

	_, err = uc.RecordIdea(context.Background(), "recipes but social")
	require.NoError(t, err)

	stored := repo.ideas["Recipe Share"]
	require.NotNil(t, stored)
	assert.Equal(t, int64(2), stored.Searches)
	// descriptive fields are kept from the first insert
	assert.Equal(t, "first", stored.Description)
	assert.Equal(t, "share recipes with friends", stored.Idea)
	assert.Equal(t, CategorySocial, stored.Category)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRecordIdea_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		gen := &stubGenerator{}
		uc := NewIdeaUseCase(newMemoryRepo(), gen, logger.NewNop())
		_, err := uc.RecordIdea(context.Background(), " \n ")
		assert.ErrorIs(t, err, ErrUserInputRequired)
		assert.Zero(t, gen.calls)
	})

	t.Run("generator", func(t *testing.T) {
		uc := NewIdeaUseCase(newMemoryRepo(), &stubGenerator{err: llm.ErrCompletionFailed}, logger.NewNop())
		_, err := uc.RecordIdea(context.Background(), "an idea")
		assert.ErrorIs(t, err, llm.ErrCompletionFailed)
	})

	t.Run("store", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.err = errors.New("connection reset")
		gen := &stubGenerator{details: map[string]*IdeaDetails{"an idea": {AppName: "Idea", Category: CategoryOther}}}
		uc := NewIdeaUseCase(repo, gen, logger.NewNop())
		_, err := uc.RecordIdea(context.Background(), "an idea")
		assert.EqualError(t, err, "connection reset")
	})
}

func TestListTopIdeas(t *testing.T) {
	repo := newMemoryRepo()
	for i, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		repo.ideas[name] = &Idea{AppName: name, Searches: int64(i + 1)}
	}
	uc := NewIdeaUseCase(repo, &stubGenerator{}, logger.NewNop())

	top, err := uc.ListTopIdeas(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, DefaultTopIdeas)
	assert.Equal(t, "G", top[0].AppName)
	assert.Equal(t, "C", top[4].AppName)

	top, err = uc.ListTopIdeas(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, top, 7)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, CategoryHealthFitness, NormalizeCategory(" health & fitness "))
	assert.Equal(t, CategoryFinance, NormalizeCategory("FINANCE"))
	assert.Equal(t, CategoryOther, NormalizeCategory("Gaming"))
	assert.Equal(t, CategoryOther, NormalizeCategory(""))

	assert.Equal(t, "Recipe Share Pro", NormalizeAppName("  Recipe   Share Pro Max "))
	assert.Equal(t, "Budgeteer", NormalizeAppName("Budgeteer"))
	assert.Empty(t, NormalizeAppName("   "))
}

type cannedLLM struct {
	reply  string
	prompt string
}

func (c *cannedLLM) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	c.prompt = req.Prompt
	return c.reply, nil
}

func TestIdeaDetailsGenerator(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    *IdeaDetails
		wantErr bool
	}{
		{
			name:  "normalizes",
			reply: `{"appName": "Pocket Budget Buddy Plus", "description": " Tracks spending ", "category": "finance"}`,
			want:  &IdeaDetails{AppName: "Pocket Budget Buddy", Description: "Tracks spending", Category: CategoryFinance},
		},
		{
			name:  "unknown category",
			reply: `{"appName": "Dungeon Pal", "description": "Tabletop helper", "category": "Gaming"}`,
			want:  &IdeaDetails{AppName: "Dungeon Pal", Description: "Tabletop helper", Category: CategoryOther},
		},
		{name: "blank app name", reply: `{"appName": "   ", "description": "x", "category": "Other"}`, wantErr: true},
		{name: "missing category", reply: `{"appName": "X", "description": "x"}`, wantErr: true},
		{name: "not json", reply: `Sorry, I can't do that.`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &cannedLLM{reply: tt.reply}
			got, err := NewIdeaDetailsGenerator(completer, 0).Generate(context.Background(), "budget tracker")
			if tt.wantErr {
				assert.ErrorIs(t, err, llm.ErrMalformedOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, completer.prompt, "Health & Fitness, Finance, Travel, or Other")
			assert.Contains(t, completer.prompt, "User input: budget tracker")
		})
	}
}
