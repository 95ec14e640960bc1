package conversation

import (
	"fmt"
	"strings"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

// Main menu buttons.
const (
	ButtonNewExpense = "💸 Nuevo Gasto"
	ButtonNewIncome  = "💰 Nuevo Ingreso"
	ButtonCategories = "📊 Ver Categorías"
	ButtonExport     = "📤 Exportar CSV"
	ButtonHelp       = "❓ Ayuda"
)

// Slash commands.
const (
	CommandStart  = "/start"
	CommandExport = "/export"
	CommandHelp   = "/help"
	CommandCancel = "/cancelar"
)

const (
	startText = "¡Hola! 👋 Bienvenido al Bot de Gastos para Actual Budget.\n\n" +
		"Usá los botones del menú para registrar gastos de forma guiada."

	helpText = "📖 *Ayuda del Bot de Gastos*\n\n" +
		"🔹 *Menú principal:*\n" +
		"Usá los botones para registrar gastos guiados.\n\n" +
		"🔹 *Comandos disponibles:*\n" +
		"• /start - Mostrar menú\n" +
		"• /export - Exportar CSV\n\n" +
		"🔹 *Flujo de registro:*\n" +
		"1. Click en 💸 Nuevo Gasto\n" +
		"2. Ingresá el monto\n" +
		"3. Seleccioná moneda\n" +
		"4. Seleccioná categoría\n" +
		"5. Agregá descripción (opcional)\n\n" +
		"💡 Los gastos se sincronizan automáticamente."

	cancelText = "❎ Registro cancelado."
)

// MainMenu is the persistent keyboard shown outside the wizard.
func MainMenu() *models.Keyboard {
	return &models.Keyboard{
		Rows: [][]string{
			{ButtonNewExpense, ButtonNewIncome},
			{ButtonCategories, ButtonExport},
			{ButtonHelp},
		},
		Resize:     true,
		Persistent: true,
	}
}

func categoriesText(categories []string) string {
	var b strings.Builder
	b.WriteString("📋 Categorías disponibles:\n\n")
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}

func exportText(n int, path string) string {
	return fmt.Sprintf("✅ CSV generado!\n\n"+
		"📊 %d movimientos exportados\n"+
		"📁 %s\n\n"+
		"Importalo en Actual Budget:\n"+
		"Cuenta → Import → CSV", n, path)
}
