// Package challenge fornece adapters HTTP (net/http) para o gate adaptativo
// de abuso: fingerprint de cliente, avaliação de risco, desafio CAPTCHA com
// validação e bypass, política de rate limit por requisição e headers
// informativos.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (avaliador de risco, ledger, bypass) sem net/http
//   - infra: implementações concretas (cache TTL, verificador Turnstile,
//     token bucket por política), detalhes de infraestrutura
//   - challenge (este pacote): middlewares HTTP + extração de fatos da
//     requisição + tradução para status/headers/corpos de desafio
//
// Fluxo no gateway:
//
//  1. Caminhos de assets/saúde pulam tudo (skip-list)
//  2. Bypass grant vigente para o IP resolvido => segue direto
//  3. Avaliador de risco decide se exige desafio (fail open em erro)
//  4. Sem token de resposta => 429 com desafio (JSON ou HTML, por negociação)
//  5. Com token => valida no serviço externo (fail closed em erro);
//     sucesso grava bypass e segue, falha reemite 429
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o
// comportamento, como CAPTCHA_SITE_KEY, CAPTCHA_SECRET, BYPASS_TTL e os
// limiares de rajada.
package challenge
