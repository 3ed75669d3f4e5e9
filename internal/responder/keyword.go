package responder

import (
	"context"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const defaultAnswer = "Для решения вашей проблемы рекомендуется:\n1. Проверить подключение и настройки оборудования\n2. Обновить драйверы и программное обеспечение\n3. Обратиться в техническую поддержку производителя\n\nПодробную информацию можно найти в документации или на сайтах поддержки."

type Entry struct {
	Keyword string `yaml:"keyword"`
	Answer  string `yaml:"answer"`
}

func (e Entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Keyword, validation.Required),
		validation.Field(&e.Answer, validation.Required),
	)
}

// Table - упорядоченный список ключевых слов; побеждает первое найденное
type Table struct {
	Entries []Entry `yaml:"entries"`
	Default string  `yaml:"default"`
}

func (t Table) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Entries, validation.Required),
		validation.Field(&t.Default, validation.Required),
	)
}

// DefaultTable - встроенные ответы. "фн" стоит первым: запрос про ФН получает ответ про ФН,
// даже если в нём есть "ошибка" или "печать".
func DefaultTable() Table {
	return Table{
		Entries: []Entry{
			{
				Keyword: "фн",
				Answer:  "Проблемы с фискальным накопителем (ФН) могут возникать из-за:\n1. Окончания срока действия ФН\n2. Переполнения памяти ФН\n3. Неправильных настроек в драйвере\n4. Физического повреждения ФН\n\nРекомендуется проверить статус ФН через утилиту диагностики.",
			},
			{
				Keyword: "ошибка",
				Answer:  "При возникновении ошибки в работе ККТ или 1С, рекомендуется:\n1. Проверить подключение устройств\n2. Перезагрузить кассовый аппарат\n3. Проверить настройки драйвера ККТ\n4. Обновить драйверы устройств\n5. Обратиться в техническую поддержку",
			},
			{
				Keyword: "печать",
				Answer:  "Проблемы с печатью чеков могут быть вызваны:\n1. Отсутствием или замятием бумаги\n2. Перегревом печатающей головки\n3. Неправильными настройками драйвера\n4. Проблемами с подключением принтера\n\nПроверьте состояние принтера и настройки в 1С.",
			},
			{
				Keyword: "1с",
				Answer:  "Для решения проблем с 1С рекомендуется:\n1. Проверить настройки подключения оборудования\n2. Обновить конфигурацию до последней версии\n3. Проверить права доступа пользователя\n4. Выполнить тестирование и исправление базы данных\n5. Обратиться в службу поддержки 1С",
			},
		},
		Default: defaultAnswer,
	}
}

// LoadTable читает таблицу из YAML. Порядок записей сохраняется.
// Если default не задан, берётся встроенный.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if t.Default == "" {
		t.Default = defaultAnswer
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("invalid table %s: %w", path, err)
	}
	return t, nil
}

type Keyword struct {
	entries  []Entry
	fallback string
}

func NewKeyword(t Table) *Keyword {
	lower := cases.Lower(language.Russian)

	entries := make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = Entry{Keyword: lower.String(e.Keyword), Answer: e.Answer}
	}

	return &Keyword{entries: entries, fallback: t.Default}
}

func (k *Keyword) Respond(_ context.Context, query string) (string, error) {
	// Caser хранит состояние, поэтому на каждый вызов свой экземпляр
	q := cases.Lower(language.Russian).String(query)

	for _, e := range k.entries {
		if strings.Contains(q, e.Keyword) {
			return e.Answer, nil
		}
	}
	return k.fallback, nil
}

func (k *Keyword) Name() string {
	return "keyword"
}
