package prompt

import (
	"fmt"
	"strings"
)

// maxHistoryTurns bounds the transcript appended to the prompt.
const maxHistoryTurns = 10

// Input carries everything the assembler needs for one generation pass.
// Passages and Locators are aligned by index; Registry must be built from
// the same Locators so bracket numbers match the citation list returned to
// the client.
type Input struct {
	UserMessage string
	Passages    []string
	Locators    []string
	History     []Turn
	Language    string
	Registry    *CitationRegistry
}

// Assemble produces the full prompt handed to the generator: grounding
// excerpts numbered by the citation registry, the source-document list, the
// instruction block, a bounded conversation transcript, the live question,
// and a final language directive.
func Assemble(in Input) string {
	var b strings.Builder

	if len(in.Passages) == 0 {
		b.WriteString(generalKnowledgePreamble(in.Language))
	} else {
		writeGroundedContext(&b, in)
	}

	writeHistory(&b, in)

	b.WriteString(in.UserMessage)
	b.WriteString("\n\n")
	b.WriteString(languageDirective(in.Language))

	return b.String()
}

// writeGroundedContext emits the numbered excerpt groups, the source
// document list, and the instruction block.
func writeGroundedContext(b *strings.Builder, in Input) {
	if in.Language == LangSpanish {
		b.WriteString("Basándote en la siguiente información:\n\n")
	} else {
		b.WriteString("Based on the following information:\n\n")
	}

	// Excerpts grouped per source document, headed by the bracket number
	// the model is told to cite.
	for _, entry := range in.Registry.Entries() {
		fmt.Fprintf(b, "[%d]:\n", entry.Number)
		for i, passage := range in.Passages {
			if i < len(in.Locators) && in.Registry.NumberFor(in.Locators[i]) == entry.Number {
				b.WriteString(passage)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	if in.Language == LangSpanish {
		b.WriteString("Documentos fuente:\n")
	} else {
		b.WriteString("Source documents:\n")
	}
	for _, entry := range in.Registry.Entries() {
		fmt.Fprintf(b, "[%d]: %s\n", entry.Number, entry.Display)
	}
	b.WriteString("\n")

	b.WriteString(instructionBlock(in.Language))
	b.WriteString("\n\n")
}

func writeHistory(b *strings.Builder, in Input) {
	history := in.History
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	if len(history) == 0 {
		return
	}

	if in.Language == LangSpanish {
		b.WriteString("Conversación previa:\n")
	} else {
		b.WriteString("Previous conversation:\n")
	}
	for _, turn := range history {
		fmt.Fprintf(b, "User: %s\n", turn.UserMessage)
		fmt.Fprintf(b, "Assistant: %s\n", turn.BotResponse)
	}
	b.WriteString("\n")
}

func generalKnowledgePreamble(language string) string {
	if language == LangSpanish {
		return "Por favor responde la siguiente pregunta. Si no tienes información específica sobre este tema, por favor indícalo:\n\n"
	}
	return "Please answer the following question. If you don't have specific information about this topic, please say so:\n\n"
}

func instructionBlock(language string) string {
	if language == LangSpanish {
		return "Por favor responde la siguiente pregunta usando únicamente la información proporcionada arriba. " +
			"Cuando hagas referencia a información de un documento específico, cítalo por su número entre corchetes, por ejemplo [1]. " +
			"No uses conocimiento externo. " +
			"Conserva la estructura del contenido (párrafos, listas, tablas) en tu respuesta."
	}
	return "Please answer the following question using only the information provided above. " +
		"When referencing information from a specific document, cite it by its bracket number, for example [1]. " +
		"Do not use outside knowledge. " +
		"Preserve the structure of the content (paragraphs, lists, tables) in your answer."
}

func languageDirective(language string) string {
	if language == LangSpanish {
		return "IMPORTANTE: Responde completamente en español. No mezcles inglés en tu respuesta."
	}
	return "IMPORTANT: Respond entirely in English. Do not mix Spanish into your answer."
}
