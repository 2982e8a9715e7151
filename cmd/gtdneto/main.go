package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpacas/gtd-neto/internal/config"
	"github.com/jpacas/gtd-neto/internal/model"
	"github.com/jpacas/gtd-neto/internal/service"
	"github.com/jpacas/gtd-neto/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gtdneto",
		Short: "gtd-neto - gestor de tareas GTD",
		Long:  "Captura notas, enrútalas a sus listas (hacer, agendar, delegar, desglosar, no-hacer) y exporta o importa tus datos.",
	}

	rootCmd.PersistentFlags().String("owner", "", "dueño de los datos (por defecto GTD_OWNER)")

	rootCmd.AddCommand(capturarCmd())
	rootCmd.AddCommand(listarCmd())
	rootCmd.AddCommand(enviarCmd())
	rootCmd.AddCommand(completarCmd())
	rootCmd.AddCommand(eliminarCmd())
	rootCmd.AddCommand(exportarCmd())
	rootCmd.AddCommand(importarCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup wires config -> store -> service once per invocation.
func setup(cmd *cobra.Command) (*service.ItemService, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if owner, _ := cmd.Flags().GetString("owner"); owner != "" {
		cfg.Owner = owner
	}
	st, err := store.New(cfg)
	if err != nil {
		return nil, "", err
	}
	return service.NewItemService(st), cfg.Owner, nil
}

func capturarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capturar [texto...]",
		Short: "Captura una nota en la bandeja de entrada",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			item, err := svc.Capture(cmd.Context(), owner, strings.Join(args, " "))
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("%s  %s\n", item.ID, item.Input)
			return nil
		},
	}
}

func listarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listar [lista]",
		Short: "Lista los elementos de una lista (collect por defecto)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			name := "collect"
			if len(args) == 1 {
				name = args[0]
			}
			list, ok := model.ParseList(name)
			if !ok {
				return fmt.Errorf("lista desconocida %q", name)
			}
			all, _ := cmd.Flags().GetBool("todas")
			items, err := svc.ListByList(cmd.Context(), owner, list, !all)
			if err != nil {
				return friendly(err)
			}
			for _, it := range items {
				mark := " "
				if it.Status == model.StatusDone {
					mark = "x"
				}
				fmt.Printf("[%s] %s  %s", mark, it.ID, it.EffectiveTitle())
				if it.PriorityScore > 0 {
					fmt.Printf("  (prioridad %d)", it.PriorityScore)
				}
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().Bool("todas", false, "incluye elementos completados")
	return cmd
}

func enviarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enviar <id> <lista>",
		Short: "Envía un elemento a una lista de destino",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			list, ok := model.ParseList(args[1])
			if !ok {
				return fmt.Errorf("lista desconocida %q", args[1])
			}
			item, err := svc.SendTo(cmd.Context(), owner, args[0], list)
			if err != nil {
				return friendly(err)
			}

			urg, _ := cmd.Flags().GetInt("urgencia")
			imp, _ := cmd.Flags().GetInt("importancia")
			if list == model.ListHacer && urg > 0 && imp > 0 {
				item, err = svc.Edit(cmd.Context(), owner, item.ID, model.Patch{
					Urgency:    &urg,
					Importance: &imp,
				})
				if err != nil {
					return friendly(err)
				}
			}
			if fecha, _ := cmd.Flags().GetString("fecha"); fecha != "" && list == model.ListAgendar {
				item, err = svc.Edit(cmd.Context(), owner, item.ID, model.Patch{ScheduledFor: &fecha})
				if err != nil {
					return friendly(err)
				}
			}
			fmt.Printf("%s -> %s\n", item.ID, item.List)
			return nil
		},
	}
	cmd.Flags().Int("urgencia", 0, "urgencia 1-5 (solo hacer)")
	cmd.Flags().Int("importancia", 0, "importancia 1-5 (solo hacer)")
	cmd.Flags().String("fecha", "", "fecha ISO (solo agendar)")
	return cmd
}

func completarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completar <id>",
		Short: "Marca un elemento como hecho",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			item, err := svc.Complete(cmd.Context(), owner, args[0])
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("hecho: %s\n", item.EffectiveTitle())
			return nil
		},
	}
}

func eliminarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eliminar <id>",
		Short: "Elimina un elemento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), owner, args[0]); err != nil {
				return friendly(err)
			}
			return nil
		},
	}
}

func exportarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportar",
		Short: "Exporta todos los elementos (JSON, o CSV con --csv)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path, _ := cmd.Flags().GetString("salida"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
				return friendly(svc.ExportCSV(cmd.Context(), owner, out))
			}
			b, err := svc.ExportJSON(cmd.Context(), owner)
			if err != nil {
				return friendly(err)
			}
			_, err = out.Write(b)
			return err
		},
	}
	cmd.Flags().Bool("csv", false, "exporta en CSV en lugar de JSON")
	cmd.Flags().String("salida", "", "fichero de salida (stdout por defecto)")
	return cmd
}

func importarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "importar <archivo>",
		Short: "Importa un fichero exportado; los ids existentes se conservan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, owner, err := setup(cmd)
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			added, err := svc.ImportMerge(cmd.Context(), owner, payload)
			if err != nil {
				return friendly(err)
			}
			fmt.Printf("importados %d elementos nuevos\n", added)
			return nil
		},
	}
}

// friendly translates store failure categories into messages that do
// not leak backend detail; the raw error stays available to logs via
// the process exit path.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	switch store.CategoryOf(err) {
	case store.CategoryPermission:
		return errors.New("no tienes permiso para acceder al almacenamiento configurado")
	case store.CategorySchema:
		return errors.New("el esquema del almacenamiento no coincide con lo esperado; revisa la configuración")
	default:
		return err
	}
}
