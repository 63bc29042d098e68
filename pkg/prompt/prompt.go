// Package prompt builds the Spanish announcer prompts fed to the text
// generator. The persona and phrasing are part of the show's identity,
// so they live here as data rather than in config.
package prompt

import (
	"fmt"
	"strings"
)

const basePrompt = `Eres una locutora de radio profesional en una emisora española.
Hablas en castellano natural y cercano, con frases que suenan bien en voz alta.
No uses listas, encabezados ni emojis: solo texto corrido listo para locución.
No te despidas ni cierres la emisión: el programa continúa.`

var energyLines = map[string]string{
	"baja":  "Tono tranquilo y pausado, como programa de madrugada.",
	"media": "Tono ameno y dinámico, como programa de tarde.",
	"alta":  "Tono enérgico y entusiasta, como programa estrella de la mañana.",
}

var styleLines = map[string]string{
	"tecnologia_casual": "Estilo divulgativo y casual sobre tecnología, sin tecnicismos innecesarios.",
	"noticias":          "Estilo informativo de boletín de noticias, claro y directo.",
	"tertulia":          "Estilo de tertulia, con opiniones y complicidad con la audiencia.",
}

// Builder renders complete prompts around the announcer persona.
type Builder struct {
	Energy string
	Style  string
}

func (b Builder) preamble() string {
	var sb strings.Builder
	sb.WriteString(basePrompt)
	if line, ok := energyLines[b.Energy]; ok {
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	if line, ok := styleLines[b.Style]; ok {
		sb.WriteString("\n")
		sb.WriteString(line)
	}
	return sb.String()
}

// Topic asks for a standalone segment about one topic.
func (b Builder) Topic(topic string, durationSeconds int) string {
	words := durationSeconds * 150 / 60
	return fmt.Sprintf(`%s

Habla durante aproximadamente %d segundos (unas %d palabras) sobre: %s.
Empieza directamente con el contenido, sin saludar de nuevo.`,
		b.preamble(), durationSeconds, words, topic)
}

// Intro opens the broadcast.
func (b Builder) Intro() string {
	return b.preamble() + `

Da la bienvenida a la emisión en dos o tres frases breves y
presenta de forma general lo que se va a escuchar. Nada más.`
}

// Monologue continues an ongoing deep-dive about theme. prevTail is the
// end of the previous segment, used to pick up the thread; hint lists
// already-covered concepts to avoid repeating.
func (b Builder) Monologue(theme, prevTail, hint string, durationSeconds int) string {
	var sb strings.Builder
	sb.WriteString(b.preamble())
	fmt.Fprintf(&sb, "\n\nEstás desarrollando un monólogo largo sobre: %s.\n", theme)
	if prevTail != "" {
		fmt.Fprintf(&sb, "\nLo último que dijiste fue:\n«%s»\nContinúa el hilo con naturalidad, sin repetirlo.\n", prevTail)
	}
	if hint != "" {
		sb.WriteString("\n")
		sb.WriteString(hint)
		sb.WriteString("\n")
	}
	words := durationSeconds * 150 / 60
	fmt.Fprintf(&sb, "\nHabla durante aproximadamente %d segundos (unas %d palabras). Aporta ángulos nuevos.", durationSeconds, words)
	return sb.String()
}

// Transition bridges two topics in a single short sentence.
func (b Builder) Transition(from, to string) string {
	return fmt.Sprintf(`%s

Enlaza en una sola frase natural el tema "%s" con el siguiente tema "%s".`,
		b.preamble(), from, to)
}

// Outro closes a finite broadcast, e.g. at the end of reader mode.
func (b Builder) Outro() string {
	return b.preamble() + `

Despide la emisión en dos frases cálidas y breves. Aquí sí puedes despedirte.`
}
