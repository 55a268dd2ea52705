// Package runner выполняет запуски job: один запуск — один проход по
// шагам спецификации в топологическом порядке.
//
// # Обзор
//
// Runner.Execute строит граф зависимостей (engine.BuildGraph), сверяет
// входные параметры с объявлениями спецификации, создаёт контекст
// выполнения и идёт по шагам строго последовательно. Ошибки графа и
// параметров фатальны и возвращаются наружу; после них ни один шаг не
// выполняется. Все остальные сбои локальны: шаг получает failed
// StepResult, запуск продолжается.
//
// # Жизненный цикл шага
//
// Перед каждым шагом опрашивается флаг отмены; запрошенная отмена
// помечает контекст и останавливает запуск с сохранением уже
// накопленных результатов. Дальше шаг проходит стадии:
//
//  1. условия skip_if / run_only_if — пропуск без обращения к стратегии;
//  2. выбор стратегии по type/method;
//  3. конфигурация: глобальная job + шаговая, с подстановкой шаблонов;
//  4. цели: input_from → config.urls/url → base_url, относительные
//     разрешаются против base_url, пустая цель — провал шага;
//  5. вызов стратегии под таймаутом шага с повторами по политике retry;
//  6. свёртка результатов целей в один StepResult.
//
// # Обход целей
//
// Пакетные стратегии (crawl, scrape) получают весь список целей одним
// вызовом. Для остальных runner сам обходит цели пачками: по вызову на
// цель, повторы на каждую цель отдельно, результаты сворачиваются
// fetch.Aggregate. Шаг успешен, если успешна хотя бы одна цель; ошибки
// остальных целей остаются в метаданных. Порог строже задаётся через
// config.min_success_ratio.
//
// # Сервис
//
// Service оборачивает Runner в долгоживущий процесс: потребляет
// запуски из очереди, подхватывает зависшие опросом базы, сохраняет
// результаты шагов и терминальный статус, публикует событие о
// завершении.
package runner
