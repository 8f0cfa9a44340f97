// Package application contém os casos de uso do gate de abuso: avaliação de
// risco, ledger de violações, bypass grants e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Evaluator.ShouldRequireCaptcha(facts) decide se a requisição deve ser
// interrompida com um desafio CAPTCHA.
package application
