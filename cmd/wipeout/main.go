package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wipeout_enterprise/internal/api"
	"wipeout_enterprise/internal/config"
	"wipeout_enterprise/internal/device"
	"wipeout_enterprise/internal/logging"
	"wipeout_enterprise/internal/reporting"
	"wipeout_enterprise/internal/security"
	"wipeout_enterprise/internal/wipe"
)

const (
	AppName = "WipeOut Enterprise"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

var (
	cfg        *config.Config
	logger     *logging.AuditLogger
	dryRun     bool
	verbose    bool
	configPath string
	profile    string

	// wipe flags
	algorithmName string
	randomPasses  int
	bufferSize    int64
	verifyFlag    bool
	forceFlag     bool
	outputPath    string
	throttleMBps  float64
	customPattern string

	// verify flags
	sampleSize  int64
	expectHex   string
	checkOffset int64
	checkLength int64
	checkHex    string
	hashFlag    bool
)

var rootCmd = &cobra.Command{
	Use:     "wipeout",
	Short:   "WipeOut Enterprise - безвозвратное затирание носителей",
	Long:    "Утилита безвозвратного затирания носителей по стандартам NIST SP 800-88, DoD 5220.22-M и Гутмана с пост-верификацией и сертификацией",
	Version: reporting.Version,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe <цель>",
	Short: "Затереть носитель или образ диска",
	Long:  "ВНИМАНИЕ: операция безвозвратно уничтожает все данные цели",
	Args:  cobra.ExactArgs(1),
	RunE:  runWipe,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Показать доступные носители",
	RunE:  runList,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <цель>",
	Short: "Проверить остаточное содержимое затертой цели",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var verifyReportCmd = &cobra.Command{
	Use:   "verify-report <файл>",
	Short: "Проверить структуру отчёта о затирании",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyReport,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Показать каталог алгоритмов затирания",
	RunE:  runInfo,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Тестовый режим")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Профиль производительности (safe/balanced/aggressive/fast)")

	wipeCmd.Flags().StringVarP(&algorithmName, "algorithm", "a", "", "Алгоритм затирания ("+strings.Join(wipe.AlgorithmNames(), "/")+")")
	wipeCmd.Flags().IntVarP(&randomPasses, "passes", "p", 0, "Количество проходов для алгоритма random")
	wipeCmd.Flags().Int64Var(&bufferSize, "buffer-size", 0, "Размер буфера записи в байтах")
	wipeCmd.Flags().BoolVar(&verifyFlag, "verify", false, "Проверить затирание после завершения")
	wipeCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Пропустить подтверждение")
	wipeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Директория для отчёта")
	wipeCmd.Flags().Float64Var(&throttleMBps, "throttle", 0, "Ограничение скорости записи, MB/s (0 = без лимита)")
	wipeCmd.Flags().StringVar(&customPattern, "patterns", "", "Пользовательские паттерны через запятую (hex или random), включает алгоритм custom")

	verifyCmd.Flags().Int64Var(&sampleSize, "sample-size", 0, "Размер выборки в байтах (по умолчанию 1MB)")
	verifyCmd.Flags().StringVar(&expectHex, "expect", "", "Ожидаемый паттерн (hex, пусто = нули)")
	verifyCmd.Flags().Int64Var(&checkOffset, "offset", 0, "Смещение точечной проверки паттерна")
	verifyCmd.Flags().Int64Var(&checkLength, "length", 0, "Длина точечной проверки паттерна")
	verifyCmd.Flags().StringVar(&checkHex, "pattern", "", "Паттерн точечной проверки (hex)")
	verifyCmd.Flags().BoolVar(&hashFlag, "hash", false, "Вычислить SHA-256 всей цели")

	rootCmd.AddCommand(wipeCmd, listCmd, verifyCmd, verifyReportCmd, infoCmd)
}

func setup() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return fmt.Errorf("ошибка применения профиля %s: %w", profile, err)
		}
	}

	logger, err = logging.NewAuditLogger(cfg, verbose)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	if profile != "" {
		logger.Log("INFO", "Применён профиль", "profile", profile)
	}

	return nil
}

// parseCustomPatterns разбирает список паттернов вида "00,ff,random,ab"
func parseCustomPatterns(spec string) ([]wipe.Pattern, error) {
	var patterns []wipe.Pattern
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		if part == "random" {
			patterns = append(patterns, wipe.RandomPattern())
			continue
		}
		raw, err := hex.DecodeString(part)
		if err != nil || len(raw) == 0 {
			return nil, fmt.Errorf("некорректный паттерн %q: ожидается hex или random", part)
		}
		patterns = append(patterns, wipe.FixedPattern(raw...))
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("список паттернов пуст")
	}
	return patterns, nil
}

func selectAlgorithm() (*wipe.Algorithm, error) {
	if customPattern != "" {
		patterns, err := parseCustomPatterns(customPattern)
		if err != nil {
			return nil, err
		}
		return wipe.NewCustom(patterns)
	}

	name := algorithmName
	if name == "" {
		name = cfg.Wipe.DefaultAlgorithm
	}

	passes := randomPasses
	if passes == 0 {
		passes = cfg.Wipe.RandomPasses
	}

	return wipe.NewAlgorithm(name, passes)
}

func confirmWipe(target string) bool {
	fmt.Printf("\n⚠  ВНИМАНИЕ: операция БЕЗВОЗВРАТНО уничтожит все данные на %s\n", target)
	fmt.Println("Это действие нельзя отменить!")
	fmt.Print("\nВведите 'WIPE' для подтверждения: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == "WIPE"
}

func runWipe(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	targetPath := args[0]

	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	if err := security.Checks(cfg); err != nil {
		return err
	}

	if err := security.ValidateTargetPath(cfg, targetPath); err != nil {
		return err
	}

	algorithm, err := selectAlgorithm()
	if err != nil {
		return err
	}

	if bufferSize == 0 {
		bufferSize = cfg.Wipe.BufferSize
	}
	if throttleMBps == 0 {
		throttleMBps = cfg.Wipe.MaxSpeedMBps
	}
	doVerify := verifyFlag || cfg.Wipe.VerifyAfterWipe

	// Предупреждение о смонтированных файловых системах
	if mounts := mountPointsFor(targetPath); len(mounts) > 0 {
		fmt.Printf("Предупреждение: цель смонтирована: %s\n", strings.Join(mounts, ", "))
		if !cfg.Wipe.AllowMounted && !forceFlag {
			return fmt.Errorf("цель %s смонтирована, размонтируйте её или используйте --force", targetPath)
		}
	}

	target, size, err := device.Open(targetPath)
	if err != nil {
		return err
	}
	defer target.Close()

	fmt.Printf("%s %s\n\n", AppName, reporting.Version)
	fmt.Printf("Цель:      %s (%s)\n", targetPath, device.HumanSize(size))
	fmt.Printf("Алгоритм:  %s — %s\n", algorithm.Name(), algorithm.Description())
	fmt.Printf("Проходов:  %d\n", algorithm.Passes())
	fmt.Printf("Буфер:     %s\n", device.HumanSize(bufferSize))
	fmt.Printf("Проверка:  %v\n", doVerify)

	if dryRun {
		fmt.Println("\nDRY RUN: запись не выполнялась")
		logger.Log("INFO", "DRY RUN: затирание пропущено", "target", targetPath, "algorithm", algorithm.Name())
		return nil
	}

	if cfg.Wipe.RequireConfirmation && !forceFlag {
		if !confirmWipe(targetPath) {
			fmt.Println("Операция отменена.")
			return nil
		}
	}

	// Отмена по Ctrl+C — кооперативная, через контекст
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := wipe.NewExecutor(logger)
	executor.SetMaxSpeed(throttleMBps)

	lastPercent := -1
	executor.SetProgress(func(written, total uint64, pass int) {
		if total == 0 {
			return
		}
		percent := int(written * 100 / total)
		if percent != lastPercent {
			fmt.Printf("\rПроход %d/%d: %3d%% (%s)", pass+1, algorithm.Passes(), percent, device.HumanSize(int64(written)))
			lastPercent = percent
		}
	})

	fmt.Println("\nНачало затирания...")
	result, err := executor.Wipe(ctx, target, size, wipe.Request{
		Algorithm:  algorithm,
		BufferSize: bufferSize,
		Verify:     doVerify,
	})
	if err != nil {
		return err
	}
	fmt.Println()

	exitCode := printResult(result)

	// Сохраняем отчёт
	endTime := time.Now()
	report := reporting.GenerateReport([]*wipe.WipeResult{result}, startTime, endTime, exitCode)

	reportDir := outputPath
	if reportDir == "" {
		reportDir = cfg.Output.ReportDirectory
	}
	reportPath, err := reporting.SaveReport(report, reportDir)
	if err != nil {
		logger.Log("ERROR", "Ошибка сохранения отчёта", "error", err.Error())
		fmt.Printf("Ошибка сохранения отчёта: %v\n", err)
	} else {
		fmt.Printf("Отчёт сохранён: %s\n", reportPath)
	}

	// Отправка в сервис сертификации
	submitResult(ctx, result)

	if exitCode != EXIT_SUCCESS {
		os.Exit(exitCode)
	}
	return nil
}

func printResult(result *wipe.WipeResult) int {
	fmt.Printf("\nСтатус:     %s\n", result.Status)
	fmt.Printf("Операция:   %s\n", result.OperationID)
	fmt.Printf("Проходов:   %d/%d\n", result.PassesCompleted, result.PassesPlanned)
	fmt.Printf("Затёрто:    %s (%d секторов)\n", device.HumanSize(int64(result.BytesWiped)), result.SectorsWiped)
	fmt.Printf("Длительность: %s\n", result.Duration)

	if result.ErrorCount > 0 {
		fmt.Printf("Ошибок:     %d\n", result.ErrorCount)
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if len(result.SkippedRanges) > 0 {
		fmt.Printf("Регионы без подтверждённой перезаписи: %d\n", len(result.SkippedRanges))
	}
	for _, w := range result.Warnings {
		fmt.Printf("Предупреждение: %s\n", w)
	}
	if result.Verification != nil && !result.Verification.Skipped {
		fmt.Printf("Верификация: success=%v (%d/%d выборок с остатками)\n",
			result.Verification.Success,
			result.Verification.NonZeroSamples,
			result.Verification.SamplesChecked)
	}

	switch result.Status {
	case wipe.StatusSuccess:
		fmt.Println("\n✓ Затирание завершено успешно")
		return EXIT_SUCCESS
	case wipe.StatusPartial, wipe.StatusCancelled:
		fmt.Println("\n⚠ Затирание завершено с замечаниями")
		return EXIT_WARNING
	default:
		fmt.Println("\n✗ Затирание не выполнено")
		return EXIT_ERROR
	}
}

func submitResult(ctx context.Context, result *wipe.WipeResult) {
	client := api.NewClient(cfg, logger)
	if !client.Enabled() {
		return
	}

	fmt.Println("Отправка результата в сервис сертификации...")
	resp, err := client.SubmitWipeResult(ctx, result)
	if err != nil {
		logger.Log("ERROR", "Ошибка отправки в сервис сертификации", "error", err.Error())
		fmt.Printf("Не удалось отправить результат: %v\n", err)
		return
	}

	if resp.Success {
		fmt.Println("✓ Сертификат сгенерирован")
		if resp.Data.Certificate.DownloadURL != "" {
			fmt.Printf("Сертификат: %s\n", resp.Data.Certificate.DownloadURL)
		}
	} else {
		fmt.Printf("Сервис сертификации отклонил результат: %s\n", resp.Error)
	}
}

// mountPointsFor возвращает точки монтирования цели, если она есть
// в списке известных устройств
func mountPointsFor(path string) []string {
	devices, err := device.List()
	if err != nil {
		return nil
	}
	for _, d := range devices {
		if d.Path == path {
			return d.MountPoints
		}
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	devices, err := device.List()
	if err != nil {
		return fmt.Errorf("ошибка перечисления носителей: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("Носители не найдены.")
		return nil
	}

	fmt.Println("Доступные носители:")
	fmt.Println(strings.Repeat("=", 72))
	for i, d := range devices {
		fmt.Printf("%2d. %s\n", i+1, d.Path)
		fmt.Printf("     Размер:    %s\n", d.SizeHuman)
		fmt.Printf("     Тип:       %s\n", d.Type)
		if d.Model != "" {
			fmt.Printf("     Модель:    %s\n", d.Model)
		}
		fmt.Printf("     Запись:    %v\n", d.Writable)
		if len(d.MountPoints) > 0 {
			fmt.Printf("     Смонтирован: %s\n", strings.Join(d.MountPoints, ", "))
		}
		fmt.Println()
	}

	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	targetPath := args[0]
	target, err := os.Open(targetPath)
	if err != nil {
		return fmt.Errorf("ошибка открытия цели %s: %w", targetPath, err)
	}
	defer target.Close()

	size, err := device.Size(target)
	if err != nil {
		return fmt.Errorf("ошибка определения размера %s: %w", targetPath, err)
	}

	// Точечная проверка паттерна
	if checkHex != "" {
		raw, derr := hex.DecodeString(checkHex)
		if derr != nil || len(raw) == 0 {
			return fmt.Errorf("некорректный hex паттерн: %s", checkHex)
		}
		if checkLength <= 0 {
			return fmt.Errorf("для точечной проверки требуется --length")
		}

		res := wipe.VerifyPatternWrite(target, raw, checkOffset, checkLength, logger)
		fmt.Printf("Точечная проверка: success=%v, несовпадений %d из %d байт\n",
			res.Success, res.Mismatches, res.BytesVerified)
		for _, e := range res.Errors {
			fmt.Printf("  - %s\n", e)
		}
		if !res.Success {
			os.Exit(EXIT_WARNING)
		}
		return nil
	}

	// Хэширование
	if hashFlag {
		res := wipe.DeviceHash(target, size, logger, 0)
		fmt.Printf("SHA-256: %s (обработано %s)\n", res.HashValue, device.HumanSize(res.BytesProcessed))
		if !res.Success {
			os.Exit(EXIT_WARNING)
		}
		return nil
	}

	// Разреженная проверка остатков
	opts := wipe.VerifyOptions{SampleSize: sampleSize}
	if expectHex != "" {
		raw, derr := hex.DecodeString(expectHex)
		if derr != nil || len(raw) == 0 {
			return fmt.Errorf("некорректный ожидаемый паттерн: %s", expectHex)
		}
		p := wipe.FixedPattern(raw...)
		opts.Expected = &p
	}

	res := wipe.VerifyWipe(target, size, logger, opts)
	fmt.Printf("Проверено выборок: %d, с остатками: %d, ошибок чтения: %d\n",
		res.SamplesChecked, res.NonZeroSamples, res.ErrorCount)
	if res.Success {
		fmt.Println("✓ Верификация пройдена")
		return nil
	}

	fmt.Println("✗ Верификация не пройдена")
	for _, e := range res.Errors {
		fmt.Printf("  - %s\n", e)
	}
	os.Exit(EXIT_WARNING)
	return nil
}

func runVerifyReport(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	report, err := reporting.LoadReport(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Отчёт:     %s\n", args[0])
	fmt.Printf("Запуск:    %s\n", report.RunID)
	fmt.Printf("Версия:    %s\n", report.Version)
	fmt.Printf("Время:     %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Printf("Операций:  %d\n", len(report.Operations))

	if err := reporting.ValidateReport(report); err != nil {
		fmt.Printf("\n✗ Структура отчёта невалидна: %v\n", err)
		os.Exit(EXIT_ERROR)
	}

	fmt.Println("\n✓ Структура отчёта валидна")
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	fmt.Printf("%s %s\n\n", AppName, reporting.Version)
	fmt.Println("Каталог алгоритмов:")

	for _, name := range wipe.AlgorithmNames() {
		alg, err := wipe.NewAlgorithm(name, 0)
		if err != nil {
			continue
		}
		fmt.Printf("  %-16s %2d проходов — %s\n", alg.Name(), alg.Passes(), alg.Description())
	}

	fmt.Println("  custom            паттерны задаются флагом --patterns")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(EXIT_ERROR)
	}
}
