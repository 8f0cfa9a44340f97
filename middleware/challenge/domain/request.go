package domain

// RequestFacts é a visão mínima de uma requisição que o núcleo precisa ler.
//
// A camada HTTP (middleware/challenge) preenche esta struct a partir do
// *http.Request; domain e application nunca enxergam o tipo do framework.
// Isso mantém as heurísticas testáveis sem httptest e portáveis para outros
// transportes.
type RequestFacts struct {
	Method    string
	Path      string
	UserAgent string

	// SessionID é o identificador de sessão, se houver (vazio caso contrário).
	SessionID string

	// PrincipalName é o nome estável do usuário autenticado.
	// Vazio quando Authenticated=false.
	PrincipalName string
	Authenticated bool

	// ClientIP é o IP já resolvido pela utilidade compartilhada
	// (X-Forwarded-For -> X-Real-IP -> RemoteAddr -> "unknown").
	// Fingerprint, bypass e contadores usam SEMPRE este mesmo valor.
	ClientIP string

	// ForwardedChain contém todos os IPs vistos em X-Forwarded-For,
	// na ordem original. Alimenta o contador por segmento de rede
	// (detector de ataque distribuído).
	ForwardedChain []string
}
