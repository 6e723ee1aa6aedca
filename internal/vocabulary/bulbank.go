package vocabulary

import "bulbank-notification-parser/internal/models"

// BulbankVersion tags the Bulgarian-language label table of UniCredit Bulbank
// notifications.
const BulbankVersion = "bulbank-bg/1"

// Several labels are strict substrings of others ("Издаване на превод" inside
// "Издаване на превод във валута", "Теглене на каса" inside
// "Такса за теглене на каса"). Misspellings seen in real notifications are
// kept as separate variants.
var bulbankLabels = map[models.TransactionType][]string{
	models.TransactionTypeCardOperation: {
		"Операция с карта",
		"Операция с дебитна карта",
		"Операция с кредитна карта",
		"Операциа с карта",
		"Плащане с карта",
		"Теглене от АТМ",
	},
	models.TransactionTypeCrossBorderTransfer: {
		"Издаване на превод във валута",
		"Издаване на првод във валута",
		"Издаване на валутен превод",
		"Трансграничен превод",
	},
	models.TransactionTypeDeskWithdrawal: {
		"Теглене на каса",
		"Теглене от каса",
		"Касово теглене",
	},
	models.TransactionTypeTransfer: {
		"Издаване на превод",
		"Издаване на кредитен превод",
		"Получаване на превод",
		"Получен кредитен превод",
		"Вътрешнобанков превод",
	},
	models.TransactionTypePeriodicPayment: {
		"Периодично плащане",
		"Периодичен превод",
		"Постоянно нареждане",
	},
	models.TransactionTypePeriodicFee: {
		"Такса за периодично плащане",
		"Такса периодично плащане",
		"Месечна такса за обслужване",
		"Такса за обслужване на сметка",
	},
	models.TransactionTypeTransferFee: {
		"Такса за превод",
		"Такса превод",
	},
	models.TransactionTypeInterbankTransferFee: {
		"Такса за междубанков превод",
		"Такса междубанков превод",
		"Такса за превод към друга банка",
	},
	models.TransactionTypeInternalTransferFee: {
		"Такса за вътрешнобанков превод",
		"Такса вътрешнобанков превод",
	},
	models.TransactionTypeWithdrawalFee: {
		"Такса за теглене",
		"Такса за теглене от АТМ",
		"Такса теглене от АТМ",
		"Такса за теглене на каса",
	},
}

// Default returns the built-in Bulbank vocabulary
func Default() *Vocabulary {
	return defaultVocabulary
}

var defaultVocabulary = MustNew(BulbankVersion, bulbankLabels)
