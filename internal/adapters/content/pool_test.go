package content

import (
	"math/rand"
	"testing"

	"astroguru/internal/domain"
)

func TestPickReturnsTextFromSignPool(t *testing.T) {
	pool := NewPoolWithRand(rand.New(rand.NewSource(1)))
	for _, sign := range domain.AllSigns {
		for i := 0; i < 20; i++ {
			got := pool.Pick(sign)
			if !containsText(textsBySign[sign], got) {
				t.Fatalf("%s: текст не из пула знака: %q", sign, got)
			}
		}
	}
}

func TestPickUnknownSignFallsBack(t *testing.T) {
	pool := NewPool()
	if got := pool.Pick("ophiuchus"); got != fallbackText {
		t.Fatalf("ожидали запасной текст, получили %q", got)
	}
}

func TestPickIsDeterministicWithSeededRand(t *testing.T) {
	first := NewPoolWithRand(rand.New(rand.NewSource(42)))
	second := NewPoolWithRand(rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		a := first.Pick(domain.Cancer)
		b := second.Pick(domain.Cancer)
		if a != b {
			t.Fatalf("итерация %d: ожидали одинаковый выбор, получили %q и %q", i, a, b)
		}
	}
}

func TestEverySignHasFivePoolEntries(t *testing.T) {
	for _, sign := range domain.AllSigns {
		if n := len(textsBySign[sign]); n != 5 {
			t.Errorf("%s: ожидали 5 текстов, нашли %d", sign, n)
		}
	}
}

func containsText(texts []string, candidate string) bool {
	for _, text := range texts {
		if text == candidate {
			return true
		}
	}
	return false
}
