// Package domain define contratos e tipos de domínio para detecção de abuso
// e desafio CAPTCHA.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar as heurísticas
// de detecção de detalhes do framework web e da infraestrutura de cache.
package domain
