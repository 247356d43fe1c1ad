package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

func testServices() []domain.ServiceDefinition {
	return []domain.ServiceDefinition{
		{Key: "tire-repair", Name: "Ремонт шин", DurationMinutes: 60, Aliases: []string{"tire_repair", "Tires"}},
		{Key: "tuneup", Name: "Тюнинг", DurationMinutes: 300},
		{Key: "oil-change", DurationMinutes: 30},
	}
}

func TestCatalog_DurationOf(t *testing.T) {
	c, err := New(testServices(), domain.DefaultServiceDurationMinutes)
	require.NoError(t, err)

	assert.Equal(t, 60, c.DurationOf("tire-repair"))
	assert.Equal(t, 60, c.DurationOf("tire_repair"))
	assert.Equal(t, 60, c.DurationOf(" TIRES "))
	assert.Equal(t, 300, c.DurationOf("tuneup"))
	assert.Equal(t, 90, c.DurationOf("brake-job"))
	assert.Equal(t, 90, c.DefaultDuration())
}

func TestCatalog_LookupReturnsCanonicalDefinition(t *testing.T) {
	c, err := New(testServices(), 90)
	require.NoError(t, err)

	def, ok := c.Lookup("tires")
	require.True(t, ok)
	assert.Equal(t, "tire-repair", def.Key)
	assert.Equal(t, []string{"tire_repair", "tires"}, def.Aliases)

	def, ok = c.Lookup("oil-change")
	require.True(t, ok)
	assert.Equal(t, "oil-change", def.Name)

	_, ok = c.Lookup("unknown")
	assert.False(t, ok)
}

func TestCatalog_List(t *testing.T) {
	c, err := New(testServices(), 90)
	require.NoError(t, err)

	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, "oil-change", list[0].Key)
	assert.Equal(t, "tire-repair", list[1].Key)
	assert.Equal(t, "tuneup", list[2].Key)
}

func TestCatalog_ReplaceKeepsPreviousOnError(t *testing.T) {
	c, err := New(testServices(), 90)
	require.NoError(t, err)

	err = c.Replace([]domain.ServiceDefinition{{Key: "tuneup", DurationMinutes: 0}}, 90)
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	err = c.Replace([]domain.ServiceDefinition{
		{Key: "a", DurationMinutes: 10},
		{Key: "b", DurationMinutes: 10, Aliases: []string{"a"}},
	}, 90)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	err = c.Replace(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	assert.Equal(t, 300, c.DurationOf("tuneup"))

	require.NoError(t, c.Replace([]domain.ServiceDefinition{{Key: "tuneup", DurationMinutes: 240}}, 60))
	assert.Equal(t, 240, c.DurationOf("tuneup"))
	assert.Equal(t, 60, c.DurationOf("tire-repair"))
}

func TestCatalog_ConcurrentReadsDuringReplace(t *testing.T) {
	c, err := New(testServices(), 90)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d := c.DurationOf("tuneup")
				assert.Contains(t, []int{300, 240}, d)
			}
		}()
	}
	for j := 0; j < 50; j++ {
		_ = c.Replace([]domain.ServiceDefinition{{Key: "tuneup", DurationMinutes: 240}}, 90)
		_ = c.Replace(testServices(), 90)
	}
	wg.Wait()
}
