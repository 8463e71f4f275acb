// Package i18n holds the fixed text table for the two supported locales and
// picks a locale from client preferences.
package i18n

import (
	"doraform/internal/model"
	"strings"

	"golang.org/x/text/language"
)

// Key identifies a user-facing message
type Key string

const (
	MsgTitle             Key = "title"
	MsgSubmitFailed      Key = "submit_failed"
	MsgNoQuestions       Key = "no_questions"
	MsgObservations      Key = "observations"
	MsgPrevious          Key = "previous"
	MsgSubmit            Key = "submit"
	MsgSubmitting        Key = "submitting"
	MsgSaveDraft         Key = "save_draft"
	MsgChartTitle        Key = "chart_title"
	MsgNoData            Key = "no_data"
	MsgReportTitle       Key = "report_title"
	MsgReportProvider    Key = "report_provider"
	MsgReportEntity      Key = "report_entity"
	MsgReportUser        Key = "report_user"
	MsgReportDate        Key = "report_date"
	MsgReportSummary     Key = "report_summary"
	MsgReportDetail      Key = "report_detail"
	MsgReportAnswer      Key = "report_answer"
	MsgReportObservation Key = "report_observation"
	MsgReportUnanswered  Key = "report_unanswered"
	MsgDeliveryCaption   Key = "delivery_caption"
)

var table = map[model.Locale]map[Key]string{
	model.LocaleES: {
		MsgTitle:             "Cuestionario DORA",
		MsgSubmitFailed:      "Hubo un error al enviar el formulario. Por favor, inténtelo de nuevo.",
		MsgNoQuestions:       "No hay preguntas disponibles.",
		MsgObservations:      "Observaciones (opcional)",
		MsgPrevious:          "Anterior",
		MsgSubmit:            "Enviar",
		MsgSubmitting:        "Enviando...",
		MsgSaveDraft:         "Guardar borrador",
		MsgChartTitle:        "Puntuación media por categoría",
		MsgNoData:            "s/d",
		MsgReportTitle:       "Informe del cuestionario DORA",
		MsgReportProvider:    "Proveedor",
		MsgReportEntity:      "Entidad financiera",
		MsgReportUser:        "Usuario",
		MsgReportDate:        "Fecha",
		MsgReportSummary:     "Resumen por categoría",
		MsgReportDetail:      "Detalle de respuestas",
		MsgReportAnswer:      "Respuesta",
		MsgReportObservation: "Observación",
		MsgReportUnanswered:  "Sin responder",
		MsgDeliveryCaption:   "Cuestionario DORA de %s para %s",
	},
	model.LocalePT: {
		MsgTitle:             "Questionário DORA",
		MsgSubmitFailed:      "Ocorreu um erro ao enviar o formulário. Por favor, tente novamente.",
		MsgNoQuestions:       "Não há perguntas disponíveis.",
		MsgObservations:      "Observações (opcional)",
		MsgPrevious:          "Anterior",
		MsgSubmit:            "Enviar",
		MsgSubmitting:        "Enviando...",
		MsgSaveDraft:         "Salvar rascunho",
		MsgChartTitle:        "Pontuação média por categoria",
		MsgNoData:            "s/d",
		MsgReportTitle:       "Relatório do questionário DORA",
		MsgReportProvider:    "Fornecedor",
		MsgReportEntity:      "Entidade financeira",
		MsgReportUser:        "Usuário",
		MsgReportDate:        "Data",
		MsgReportSummary:     "Resumo por categoria",
		MsgReportDetail:      "Detalhe das respostas",
		MsgReportAnswer:      "Resposta",
		MsgReportObservation: "Observação",
		MsgReportUnanswered:  "Sem resposta",
		MsgDeliveryCaption:   "Questionário DORA de %s para %s",
	},
}

// T returns the message for key in locale l. Unknown locales read the Spanish
// table; unknown keys return the key itself.
func T(l model.Locale, key Key) string {
	msgs, ok := table[l]
	if !ok {
		msgs = table[model.LocaleES]
	}
	if s, ok := msgs[key]; ok {
		return s
	}
	return string(key)
}

var (
	supported = []language.Tag{language.Spanish, language.Portuguese}
	matcher   = language.NewMatcher(supported)
)

// Parse accepts an exact locale tag ("es", "pt", case-insensitive).
func Parse(s string) (model.Locale, bool) {
	l := model.Locale(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Match picks a supported locale from the given preferences, in order. Each
// preference may be a plain tag or an Accept-Language header value. The
// fallback is returned when nothing matches.
func Match(fallback model.Locale, prefs ...string) model.Locale {
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if l, ok := Parse(p); ok {
			return l
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return model.Locales[idx]
	}
	return fallback
}
