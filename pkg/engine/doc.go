// Package engine определяет границу с нижележащим media engine.
//
// Engine — это опаковая реализация медиа-стека (ICE, DTLS, SRTP, SCTP),
// которая исполняет команды согласования сессии и асинхронно публикует
// события о её состоянии. Контроллер сессии (pkg/peer) никогда не
// заглядывает внутрь engine: SDP и ICE candidate передаются как опаковые
// сериализуемые значения, а всё состояние сессии восстанавливается из
// снапшотов (Snapshot), возвращаемых командами, и из событий (Event),
// доставляемых через Bus.
//
// Пакет содержит:
//   - интерфейс Engine с типизированными командами (по одному результату
//     на вызов, без очередей и без отмены);
//   - закрытый набор типов событий с фильтрацией по идентификатору сессии;
//   - Bus — реестр подписок (event kind, session id) с идемпотентной
//     отпиской.
package engine
