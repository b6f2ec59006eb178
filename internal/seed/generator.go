package seed

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// randomFloatDivisor scales crypto/rand integers into [0,1) floats.
const randomFloatDivisor = 1000000

var subjectPool = []string{
	"Mathematics AA", "English A", "Biology", "Chemistry", "Physics",
	"History", "Economics", "Spanish B", "Visual Arts",
}

var firstNames = []string{
	"Amara", "Ben", "Carla", "Dmitri", "Elena", "Farid", "Grace", "Hiro",
	"Ines", "Jonas", "Kira", "Leo", "Mona", "Nadia", "Omar", "Priya",
}

var lastNames = []string{
	"Adler", "Brooks", "Castillo", "Dubois", "Eriksen", "Fischer", "Garcia",
	"Haddad", "Ivanov", "Johansson", "Khan", "Lindgren", "Moretti", "Novak",
}

var trendPool = []string{"up", "down", "stable"}
var taskCategoryPool = []string{"IA", "Summative", "Core"}
var taskStatusPool = []string{"submitted", "missing", "late", "pending"}
var coreStatusPool = []string{"Not Started", "In Progress", "At Risk", "On Track", "Behind", "Completed"}
var cohortPool = []string{"DP1 (Y12)", "DP2 (Y13)"}

// getRandomFloat returns a random float64 in [0,1) using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func pick(pool []string) string {
	return pool[int(getRandomFloat()*float64(len(pool)))%len(pool)]
}

func randInt(min, max int) int {
	return min + int(getRandomFloat()*float64(max-min+1))%(max-min+1)
}

// GenerateExtract builds one synthetic extract file: a header row plus
// cfg.NumRecords data rows with CSV-quoted embedded JSON columns.
func GenerateExtract(cfg *Config) string {
	var b strings.Builder
	b.WriteString("id,name,cohort,attendance,missed_sessions,subjects,core\n")

	for i := 0; i < cfg.NumRecords; i++ {
		identity := "S-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		name := pick(firstNames) + " " + pick(lastNames)
		cohort := pick(cohortPool)
		attendance := fmt.Sprintf("%.1f%%", 70+getRandomFloat()*30)
		missed := fmt.Sprintf("%d", randInt(0, 30))

		subjects := csvQuote(subjectsJSON(cfg))
		core := csvQuote(coreJSON(cfg))

		b.WriteString(strings.Join([]string{identity, name, cohort, attendance, missed, subjects, core}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// subjectsJSON renders a randomized subject-entries column.
func subjectsJSON(cfg *Config) string {
	if cfg.MalformedRatio > 0 && getRandomFloat() < cfg.MalformedRatio {
		return `[{"subject": "broken`
	}

	count := randInt(3, 6)
	entries := make([]map[string]any, count)
	for i := range entries {
		tasks := make([]map[string]any, randInt(0, 4))
		for j := range tasks {
			maxScore := float64(randInt(10, 40))
			tasks[j] = map[string]any{
				"name":     fmt.Sprintf("Task %d", j+1),
				"score":    maxScore * getRandomFloat(),
				"maxScore": maxScore,
				"category": pick(taskCategoryPool),
				"status":   pick(taskStatusPool),
			}
		}
		entries[i] = map[string]any{
			"subject":       pick(subjectPool),
			"level":         pick([]string{"HL", "SL"}),
			"currentMark":   randInt(1, 7),
			"predictedMark": randInt(1, 7),
			"trend":         pick(trendPool),
			"assignments":   tasks,
		}
	}
	out, _ := json.Marshal(entries)
	return string(out)
}

// coreJSON renders a randomized core-progress column.
func coreJSON(cfg *Config) string {
	if cfg.MalformedRatio > 0 && getRandomFloat() < cfg.MalformedRatio {
		return `{"ee": }`
	}

	out, _ := json.Marshal(map[string]any{
		"ee":     pick(coreStatusPool),
		"tok":    pick(coreStatusPool),
		"cas":    pick(coreStatusPool),
		"points": randInt(0, 3),
	})
	return string(out)
}

// csvQuote wraps a value in one outer pair of double quotes with internal
// quotes doubled, mirroring how spreadsheet exports quote embedded JSON.
func csvQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
