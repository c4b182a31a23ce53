package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.MustParse("pt-BR")

	message.SetString(lang, "onboarding.request_created.title", "Solicitação de fornecedor criada")
	message.SetString(lang, "onboarding.request_created.body", "Nova solicitação de fornecedor de %s (%s)")
	message.SetString(lang, "onboarding.form_submitted.title", "Formulário enviado")
	message.SetString(lang, "onboarding.form_submitted.body", "O fornecedor %s enviou o formulário de cadastro")
	message.SetString(lang, "onboarding.status_changed.title", "Status alterado")
	message.SetString(lang, "onboarding.status_changed.body", "O status do fornecedor %s mudou de %s para %s")
	message.SetString(lang, "onboarding.validation_pending.title", "Validação necessária")
	message.SetString(lang, "onboarding.validation_pending.body", "O fornecedor %s aguarda validação. Por favor, revise.")
	message.SetString(lang, "onboarding.missing_data.title", "Dados ausentes")
	message.SetString(lang, "onboarding.missing_data.body", "O fornecedor %s tem dados ausentes: %s")
	message.SetString(lang, "onboarding.unresponsive.title", "Fornecedor sem resposta - ação necessária")
	message.SetString(lang, "onboarding.unresponsive.body", "O fornecedor %s não responde. %d acompanhamento(s) enviado(s) sem resposta há %d dias. Revise e tome as medidas adequadas.")
}
