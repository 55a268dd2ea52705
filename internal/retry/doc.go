// Package retry содержит классификацию ошибок получения и политику
// повторных попыток с настраиваемой задержкой.
//
// Классификатор — чистые функции поверх HTTP-статуса или ошибки;
// решение "повторять или нет" принимает категория, а не вызывающий код.
package retry
