package utils

// SplitText splits schema documentation into chunks of roughly chunkSize
// characters with an overlap so a table definition straddling a boundary
// stays visible in both neighbouring chunks. Character-based on purpose:
// DDL comments tokenize poorly and losing text is worse than an uneven cut.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}
