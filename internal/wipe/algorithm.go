package wipe

import (
	"bytes"
	"errors"
	"fmt"
)

// PatternKind определяет вид паттерна прохода
type PatternKind int

const (
	// PatternFixed — фиксированная повторяющаяся последовательность байт
	PatternFixed PatternKind = iota
	// PatternRandom — криптографически стойкие случайные данные,
	// генерируются заново для каждого чанка при выполнении прохода
	PatternRandom
)

// Pattern описывает данные одного прохода затирания
type Pattern struct {
	Kind  PatternKind
	Bytes []byte // повторяющаяся единица для PatternFixed, nil для PatternRandom
}

// FixedPattern создает фиксированный паттерн из последовательности байт
func FixedPattern(b ...byte) Pattern {
	return Pattern{Kind: PatternFixed, Bytes: b}
}

// RandomPattern создает паттерн случайных данных
func RandomPattern() Pattern {
	return Pattern{Kind: PatternRandom}
}

// Equal сравнивает два паттерна (Random сравниваются как тег, не как данные)
func (p Pattern) Equal(other Pattern) bool {
	if p.Kind != other.Kind {
		return false
	}
	if p.Kind == PatternRandom {
		return true
	}
	return bytes.Equal(p.Bytes, other.Bytes)
}

// String возвращает человекочитаемое описание паттерна
func (p Pattern) String() string {
	if p.Kind == PatternRandom {
		return "random"
	}
	return fmt.Sprintf("0x%X", p.Bytes)
}

var (
	// ErrInvalidPass возвращается при номере прохода вне [0, passes)
	ErrInvalidPass = errors.New("invalid pass number")
	// ErrUnknownAlgorithm возвращается при неизвестном имени алгоритма
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
)

// Имена алгоритмов каталога
const (
	AlgorithmNIST           = "nist"
	AlgorithmNISTClear      = "nist-clear"
	AlgorithmDoD            = "dod"
	AlgorithmDoDExtended    = "dod-extended"
	AlgorithmRandom         = "random"
	AlgorithmSingleRandom   = "single-random"
	AlgorithmZeroRandom     = "zero-random"
	AlgorithmGutmann        = "gutmann"
	AlgorithmGutmannReduced = "gutmann-reduced"
	AlgorithmCustom         = "custom"
)

// DefaultRandomPasses — количество проходов алгоритма random по умолчанию
const DefaultRandomPasses = 3

// Algorithm — неизменяемая таблица проходов именованного стандарта затирания.
// Создается один раз конструктором, после этого только читается.
type Algorithm struct {
	name         string
	description  string
	passes       []Pattern
	descriptions []string
}

// Name возвращает имя алгоритма
func (a *Algorithm) Name() string { return a.name }

// Description возвращает описание алгоритма
func (a *Algorithm) Description() string { return a.description }

// Passes возвращает количество проходов
func (a *Algorithm) Passes() int { return len(a.passes) }

// GetPattern возвращает паттерн для указанного прохода.
// Детерминирован: одинаковые (алгоритм, проход) всегда дают одинаковый
// дескриптор. Номер прохода вне [0, Passes()) — ошибка ErrInvalidPass.
func (a *Algorithm) GetPattern(pass int) (Pattern, error) {
	if pass < 0 || pass >= len(a.passes) {
		return Pattern{}, fmt.Errorf("%w %d for %s algorithm", ErrInvalidPass, pass, a.name)
	}
	return a.passes[pass], nil
}

// PatternDescription возвращает описание паттерна прохода для логов и отчётов
func (a *Algorithm) PatternDescription(pass int) string {
	if pass >= 0 && pass < len(a.descriptions) && a.descriptions[pass] != "" {
		return a.descriptions[pass]
	}
	return fmt.Sprintf("Pass %d pattern", pass+1)
}

// NewNIST — NIST SP 800-88 Rev. 1, метод Purge (3 прохода)
func NewNIST() *Algorithm {
	return &Algorithm{
		name:        AlgorithmNIST,
		description: "NIST SP 800-88 Rev. 1 Purge method (3 passes)",
		passes: []Pattern{
			FixedPattern(0x00),
			FixedPattern(0xFF),
			RandomPattern(),
		},
		descriptions: []string{
			"Write zeros (0x00)",
			"Write ones (0xFF)",
			"Write random data",
		},
	}
}

// NewNISTClear — NIST SP 800-88 Rev. 1, метод Clear (1 проход нулями)
func NewNISTClear() *Algorithm {
	return &Algorithm{
		name:         AlgorithmNISTClear,
		description:  "NIST SP 800-88 Rev. 1 Clear method (1 pass)",
		passes:       []Pattern{FixedPattern(0x00)},
		descriptions: []string{"Write zeros (0x00)"},
	}
}

// NewDoD — DoD 5220.22-M (3 прохода)
func NewDoD() *Algorithm {
	return &Algorithm{
		name:        AlgorithmDoD,
		description: "US Department of Defense 5220.22-M standard (3 passes)",
		passes: []Pattern{
			FixedPattern(0x00),
			FixedPattern(0xFF),
			RandomPattern(),
		},
		descriptions: []string{
			"Write zeros (0x00)",
			"Write ones/complement (0xFF)",
			"Write random data with verification",
		},
	}
}

// NewDoDExtended — расширенный DoD 5220.22-M (7 проходов)
func NewDoDExtended() *Algorithm {
	return &Algorithm{
		name:        AlgorithmDoDExtended,
		description: "Extended DoD 5220.22-M standard (7 passes)",
		passes: []Pattern{
			FixedPattern(0x00),
			FixedPattern(0xFF),
			RandomPattern(),
			FixedPattern(0x00),
			FixedPattern(0xFF),
			RandomPattern(),
			FixedPattern(0x00),
		},
		descriptions: []string{
			"Write zeros (0x00)",
			"Write ones (0xFF)",
			"Write random data",
			"Write zeros (0x00)",
			"Write ones (0xFF)",
			"Write random data",
			"Write zeros (0x00)",
		},
	}
}

// NewRandom — случайные данные, настраиваемое число проходов.
// Количество проходов фиксируется при создании и больше не меняется.
func NewRandom(passes int) *Algorithm {
	if passes <= 0 {
		passes = DefaultRandomPasses
	}
	table := make([]Pattern, passes)
	descs := make([]string, passes)
	for i := range table {
		table[i] = RandomPattern()
		descs[i] = fmt.Sprintf("Cryptographically secure random data (pass %d)", i+1)
	}
	return &Algorithm{
		name:         AlgorithmRandom,
		description:  fmt.Sprintf("Cryptographically secure random data (%d passes)", passes),
		passes:       table,
		descriptions: descs,
	}
}

// NewSingleRandom — один проход случайными данными
func NewSingleRandom() *Algorithm {
	return &Algorithm{
		name:         AlgorithmSingleRandom,
		description:  "Single pass cryptographically secure random data",
		passes:       []Pattern{RandomPattern()},
		descriptions: []string{"Cryptographically secure random data"},
	}
}

// NewZeroRandom — два прохода: нули, затем случайные данные
func NewZeroRandom() *Algorithm {
	return &Algorithm{
		name:        AlgorithmZeroRandom,
		description: "Two-pass algorithm: zeros then random data",
		passes: []Pattern{
			FixedPattern(0x00),
			RandomPattern(),
		},
		descriptions: []string{
			"Write zeros (0x00)",
			"Cryptographically secure random data",
		},
	}
}

// gutmannPatterns — фиксированные паттерны Гутмана для проходов 5-31
// (каждый — повторяющаяся 3-байтовая единица)
var gutmannPatterns = [][]byte{
	{0x55, 0x55, 0x55},
	{0xAA, 0xAA, 0xAA},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x00, 0x00, 0x00},
	{0x11, 0x11, 0x11},
	{0x22, 0x22, 0x22},
	{0x33, 0x33, 0x33},
	{0x44, 0x44, 0x44},
	{0x55, 0x55, 0x55},
	{0x66, 0x66, 0x66},
	{0x77, 0x77, 0x77},
	{0x88, 0x88, 0x88},
	{0x99, 0x99, 0x99},
	{0xAA, 0xAA, 0xAA},
	{0xBB, 0xBB, 0xBB},
	{0xCC, 0xCC, 0xCC},
	{0xDD, 0xDD, 0xDD},
	{0xEE, 0xEE, 0xEE},
	{0xFF, 0xFF, 0xFF},
	{0x92, 0x49, 0x24},
	{0x49, 0x24, 0x92},
	{0x24, 0x92, 0x49},
	{0x6D, 0xB6, 0xDB},
	{0xB6, 0xDB, 0x6D},
	{0xDB, 0x6D, 0xB6},
}

// NewGutmann — 35-проходный алгоритм Питера Гутмана:
// 4 случайных прохода, 27 фиксированных паттернов, 4 случайных прохода
func NewGutmann() *Algorithm {
	table := make([]Pattern, 0, 35)
	descs := make([]string, 0, 35)
	for i := 0; i < 4; i++ {
		table = append(table, RandomPattern())
		descs = append(descs, fmt.Sprintf("Random data (initial pass %d)", i+1))
	}
	for i, p := range gutmannPatterns {
		table = append(table, FixedPattern(p...))
		descs = append(descs, fmt.Sprintf("Specific pattern %d: %x", i+1, p))
	}
	for i := 0; i < 4; i++ {
		table = append(table, RandomPattern())
		descs = append(descs, fmt.Sprintf("Random data (final pass %d)", i+1))
	}
	return &Algorithm{
		name:         AlgorithmGutmann,
		description:  "Peter Gutmann's 35-pass secure deletion algorithm",
		passes:       table,
		descriptions: descs,
	}
}

// NewGutmannReduced — сокращенный Гутман, 10 ключевых проходов
func NewGutmannReduced() *Algorithm {
	return &Algorithm{
		name:        AlgorithmGutmannReduced,
		description: "Reduced Gutmann algorithm with key patterns (10 passes)",
		passes: []Pattern{
			RandomPattern(),
			FixedPattern(0x00),
			FixedPattern(0xFF),
			FixedPattern(0x55, 0x55, 0x55),
			FixedPattern(0xAA, 0xAA, 0xAA),
			FixedPattern(0x92, 0x49, 0x24),
			FixedPattern(0x49, 0x24, 0x92),
			FixedPattern(0x6D, 0xB6, 0xDB),
			RandomPattern(),
			RandomPattern(),
		},
		descriptions: []string{
			"Random data",
			"Write zeros (0x00)",
			"Write ones (0xFF)",
			"Pattern 0x555555",
			"Pattern 0xAAAAAA",
			"Pattern 0x924924",
			"Pattern 0x492492",
			"Pattern 0x6DB6DB",
			"Random data",
			"Random data",
		},
	}
}

// NewCustom — пользовательская последовательность паттернов
func NewCustom(patterns []Pattern) (*Algorithm, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("custom algorithm requires at least one pattern")
	}
	table := make([]Pattern, len(patterns))
	copy(table, patterns)
	descs := make([]string, len(table))
	for i, p := range table {
		if p.Kind == PatternRandom {
			descs[i] = "Random data"
		} else {
			descs[i] = fmt.Sprintf("Pattern: %x", p.Bytes)
		}
	}
	return &Algorithm{
		name:         AlgorithmCustom,
		description:  fmt.Sprintf("Custom pattern algorithm (%d passes)", len(table)),
		passes:       table,
		descriptions: descs,
	}, nil
}

// NewAlgorithm возвращает алгоритм каталога по имени.
// randomPasses задает число проходов для алгоритма random (0 = по умолчанию).
func NewAlgorithm(name string, randomPasses int) (*Algorithm, error) {
	switch name {
	case AlgorithmNIST:
		return NewNIST(), nil
	case AlgorithmNISTClear:
		return NewNISTClear(), nil
	case AlgorithmDoD:
		return NewDoD(), nil
	case AlgorithmDoDExtended:
		return NewDoDExtended(), nil
	case AlgorithmRandom:
		return NewRandom(randomPasses), nil
	case AlgorithmSingleRandom:
		return NewSingleRandom(), nil
	case AlgorithmZeroRandom:
		return NewZeroRandom(), nil
	case AlgorithmGutmann:
		return NewGutmann(), nil
	case AlgorithmGutmannReduced:
		return NewGutmannReduced(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// AlgorithmNames возвращает имена алгоритмов каталога (для CLI)
func AlgorithmNames() []string {
	return []string{
		AlgorithmNIST,
		AlgorithmNISTClear,
		AlgorithmDoD,
		AlgorithmDoDExtended,
		AlgorithmRandom,
		AlgorithmSingleRandom,
		AlgorithmZeroRandom,
		AlgorithmGutmann,
		AlgorithmGutmannReduced,
	}
}
