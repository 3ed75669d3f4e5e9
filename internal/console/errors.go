package console

import (
	"errors"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

func mapErrorToMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return emptyInput
	case errors.Is(err, domain.ErrQueryTooLong):
		return "Запрос слишком длинный. Сократите описание проблемы."
	case errors.Is(err, domain.ErrHistoryNotFound):
		return "Запись не найдена."
	}

	switch domain.KindOf(err) {
	case domain.FailureStorage:
		return "Не удалось сохранить или прочитать историю: " + err.Error()
	case domain.FailureUpstreamUnavailable:
		return "Сервис временно недоступен, попробуйте позже."
	case domain.FailureDependencyUnavailable:
		return "Не хватает зависимости: " + err.Error()
	}

	return "Ошибка при поиске: " + err.Error()
}
