package chunk

// TokensPerChar approximates token count from byte length: 4 chars per token.
const TokensPerChar = 4
