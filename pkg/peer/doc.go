// Package peer реализует клиентский контроллер peer-to-peer медиа-сессии.
//
// Session выдаёт команды согласования нижележащему media engine и сводит
// его асинхронные уведомления в одно консистентное наблюдаемое состояние:
// фазу signaling, состояния соединения и ICE, набор transceiver-ов,
// локальные и удалённые медиа-потоки, каналы данных.
//
// Ядро пакета — реконсиляция состояния:
//
//   - снапшоты, возвращаемые завершившимися командами, сливаются в
//     локальные объекты с сохранением идентичности (upsert по id, затем
//     reorder по авторитетному порядку снапшота);
//   - поток несортированных асинхронных событий engine маршрутизируется
//     в переходы полей состояния и внешние уведомления, строго в порядке
//     «сначала состояние, потом уведомление»;
//   - transceiver-ы живут в таблице с разделёнными хранилищем и видимым
//     порядком: выпадение из порядка не разрушает объект и не
//     инвалидирует внешние ссылки;
//   - достижение терминального состояния соединения запускает
//     идемпотентный teardown подписок — ровно один раз на сессию.
//
// Команды и события могут чередоваться в любом порядке; все мутации
// сериализуются одним мьютексом сессии, вызывающие получают только копии
// внутренних коллекций.
package peer
