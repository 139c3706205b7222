package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

func catalogWith(template string) *domain.Catalog {
	return &domain.Catalog{
		Bases: map[string]domain.BaseProfile{
			domain.DefaultPersonality: {Name: domain.DefaultPersonality, Template: template},
		},
		Modifiers: map[string]domain.Modifier{
			"playful": {Name: "playful", Text: "Tease a little."},
		},
	}
}

func TestPersonalityRegistry_Replace(t *testing.T) {
	r := NewPersonalityRegistry(catalogWith("first"))
	assert.Equal(t, "first", r.Resolve("playful").Template)
	assert.True(t, r.Has("playful"))

	r.Replace(catalogWith("second"))
	assert.Equal(t, "second", r.Resolve("playful").Template)

	r.Replace(nil)
	assert.Equal(t, "second", r.Resolve("default").Template)
}

func TestPersonalityRegistry_ConcurrentReadsDuringReload(t *testing.T) {
	r := NewPersonalityRegistry(catalogWith("a"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					r.Replace(catalogWith("b"))
					continue
				}
				tmpl := r.Resolve("unknown").Template
				assert.Contains(t, []string{"a", "b"}, tmpl)
			}
		}(i)
	}
	wg.Wait()
}
