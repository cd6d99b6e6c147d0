package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	infrapdf "github.com/tu-usuario/invoice-qc/internal/infrastructure/pdf"
)

var reportCmd = &cobra.Command{
	Use:   "report [archivo.json]",
	Short: "Valida un lote y genera el reporte de control de calidad en PDF",
	Example: `  # Generar el reporte PDF de un lote
  qc report facturas.json -o reporte.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("output", "o", "validation-report.pdf", "Archivo PDF de salida")
	reportCmd.Flags().String("database-url", "", "PostgreSQL para la detección de duplicados (opcional)")
	reportCmd.Flags().Float64("high-amount-threshold", 1_000_000, "Umbral de monto inusualmente alto")
	reportCmd.Flags().Float64("tolerance", 0.01, "Tolerancia para comparaciones de montos")
	reportCmd.Flags().Int("workers", 4, "Registros validados en paralelo")
}

func runReport(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")

	raws, err := loadRawInvoices(args[0])
	if err != nil {
		return err
	}

	uc, _, cleanup, err := buildValidationUC(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report := uc.ValidateBatch(cmd.Context(), raws, time.Now().UTC())
	pdfBytes, err := infrapdf.NewMarotoReportGenerator().GenerateReportPDF(cmd.Context(), report)
	if err != nil {
		return fmt.Errorf("generando PDF: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0644); err != nil {
		return fmt.Errorf("escribiendo %s: %w", outputPath, err)
	}
	fmt.Printf("Reporte generado: %s (%d facturas)\n", outputPath, report.Summary.TotalInvoices)
	return nil
}
