package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qc",
	Short: "Control de calidad de facturas desde la línea de comandos",
	Long: `qc valida lotes de facturas estructuradas y extrae registros del
texto de documentos, sin necesidad del servidor HTTP.

La validación aplica las mismas reglas que el API: completitud,
consistencia de negocio y detección de anomalías. La verificación de
duplicados contra el histórico solo se activa si se indica una base de
datos con --database-url.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
